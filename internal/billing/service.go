package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

type lineReader interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID, statuses ...enums.LineStatus) ([]models.CartLine, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
}

// Service derives bills from confirmed lines. Every call computes from the
// store; bill reads never mutate state and never serve a cached figure.
type Service interface {
	ComputeSessionBill(ctx context.Context, sessionID uuid.UUID) (*SessionBillDTO, error)
	ComputeDinerBill(ctx context.Context, sessionID uuid.UUID, dinerName string) (*DinerBillDTO, error)
	SessionTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type service struct {
	lines    lineReader
	sessions sessionReader
	vatRate  decimal.Decimal
}

// NewService builds a billing service over the given line and session reads.
func NewService(lines lineReader, sessions sessionReader, vatRate decimal.Decimal) (Service, error) {
	if lines == nil {
		return nil, fmt.Errorf("line reader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if vatRate.IsNegative() {
		return nil, fmt.Errorf("vat rate cannot be negative")
	}
	return &service{lines: lines, sessions: sessions, vatRate: vatRate}, nil
}

// ComputeSessionBill totals all confirmed lines of the session. Shared lines
// contribute their full original price here; their split shares appear only
// on diner bills.
func (s *service) ComputeSessionBill(ctx context.Context, sessionID uuid.UUID) (*SessionBillDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	lines, err := s.lines.ListBySession(ctx, sessionID, enums.LineStatusConfirmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list confirmed lines")
	}

	subtotal := decimal.Zero
	billLines := make([]BillLineDTO, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		total := pricing.LineTotal(line.UnitPrice, line.Quantity)
		subtotal = subtotal.Add(total)
		billLines = append(billLines, billLine(line, total))
	}

	vat := pricing.VATPortion(subtotal, s.vatRate)
	total := pricing.WithVAT(subtotal, s.vatRate)
	return &SessionBillDTO{
		SessionID:     sessionID,
		Lines:         billLines,
		Subtotal:      pricing.FormatAmount(subtotal),
		VAT:           pricing.FormatAmount(vat),
		Total:         pricing.FormatAmount(total),
		SubtotalCents: pricing.Cents(subtotal),
		VATCents:      pricing.Cents(vat),
		TotalCents:    pricing.Cents(total),
	}, nil
}

// ComputeDinerBill totals a diner's own non-shared lines plus their share of
// every shared line they participate in.
func (s *service) ComputeDinerBill(ctx context.Context, sessionID uuid.UUID, dinerName string) (*DinerBillDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	name := strings.TrimSpace(dinerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diner name required")
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sessionHasDiner(session, name) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "diner is not registered in this session")
	}

	lines, err := s.lines.ListBySession(ctx, sessionID, enums.LineStatusConfirmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list confirmed lines")
	}

	personal := decimal.Zero
	shared := decimal.Zero
	personalLines := make([]BillLineDTO, 0, len(lines))
	sharedLines := make([]ShareLineDTO, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		switch {
		case !line.IsShared && line.DinerName == name:
			total := pricing.LineTotal(line.UnitPrice, line.Quantity)
			personal = personal.Add(total)
			personalLines = append(personalLines, billLine(line, total))
		case line.IsShared && line.Split != nil && line.Split.Participants.Contains(name):
			original := pricing.LineTotal(line.UnitPrice, line.Quantity)
			if !pricing.Conserved(line.Split.SplitPrice, line.Split.SplitCount, original) {
				return nil, pkgerrors.New(pkgerrors.CodeInternal, "split ledger is out of step with its line").
					WithDetails(map[string]any{"line_id": line.ID})
			}
			shared = shared.Add(line.Split.SplitPrice)
			sharedLines = append(sharedLines, shareLine(line))
		}
	}

	total := pricing.WithVAT(personal.Add(shared), s.vatRate)
	return &DinerBillDTO{
		SessionID:     sessionID,
		DinerName:     name,
		PersonalLines: personalLines,
		SharedLines:   sharedLines,
		PersonalTotal: pricing.FormatAmount(personal),
		SharedTotal:   pricing.FormatAmount(shared),
		Total:         pricing.FormatAmount(total),
		TotalCents:    pricing.Cents(total),
	}, nil
}

// SessionTotalCents is the VAT-inclusive session total in minor units, used
// by payment validation and session close checks.
func (s *service) SessionTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	bill, err := s.ComputeSessionBill(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return bill.TotalCents, nil
}

func (s *service) loadSession(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
}

func billLine(line *models.CartLine, total decimal.Decimal) BillLineDTO {
	dto := BillLineDTO{
		LineID:     line.ID,
		DinerName:  line.DinerName,
		Quantity:   line.Quantity,
		UnitPrice:  pricing.FormatAmount(line.UnitPrice),
		LineTotal:  pricing.FormatAmount(total),
		IsShared:   line.IsShared,
		IsTakeaway: line.IsTakeaway,
	}
	if line.MenuItem != nil {
		dto.ItemName = line.MenuItem.Name
	}
	return dto
}

func shareLine(line *models.CartLine) ShareLineDTO {
	dto := ShareLineDTO{
		LineID:     line.ID,
		SplitCount: line.Split.SplitCount,
		Share:      pricing.FormatAmount(line.Split.SplitPrice),
	}
	if line.MenuItem != nil {
		dto.ItemName = line.MenuItem.Name
	}
	return dto
}

func sessionHasDiner(session *models.DiningSession, name string) bool {
	for _, diner := range session.Diners {
		if diner.Name == name {
			return true
		}
	}
	return false
}
