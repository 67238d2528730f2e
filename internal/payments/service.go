package payments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/internal/billing"
	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
	"github.com/pulanodus/tableserve-backend/pkg/square"
)

// amountToleranceCents is the rounding slack allowed between a tendered
// amount and the computed bill.
const amountToleranceCents int64 = 1

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentCreator interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

type billReader interface {
	ComputeSessionBill(ctx context.Context, sessionID uuid.UUID) (*billing.SessionBillDTO, error)
	ComputeDinerBill(ctx context.Context, sessionID uuid.UUID, dinerName string) (*billing.DinerBillDTO, error)
}

type sessionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
	TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
}

// RecordPaymentInput captures one settlement attempt. An empty DinerName
// settles the whole table; SourceID is the Square payment token and only
// applies to card payments.
type RecordPaymentInput struct {
	SessionID   uuid.UUID
	DinerName   string
	Method      enums.PaymentMethod
	AmountCents int64
	SourceID    string
}

// Service records and lists payments against dining sessions.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentDTO, error)
	ListPayments(ctx context.Context, sessionID uuid.UUID) ([]PaymentDTO, error)
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Repo              Repository
	Bills             billReader
	Sessions          sessionStore
	SquareClient      paymentCreator
	TransactionRunner txRunner
	Outbox            outboxPublisher
	LocationID        string
	Currency          enums.Currency
}

type service struct {
	repo       Repository
	bills      billReader
	sessions   sessionStore
	square     paymentCreator
	tx         txRunner
	outbox     outboxPublisher
	locationID string
	currency   enums.Currency
	now        func() time.Time
}

// NewService constructs a payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Bills == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bill reader required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	if params.SquareClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyBWP
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unsupported currency")
	}

	return &service{
		repo:       params.Repo,
		bills:      params.Bills,
		sessions:   params.Sessions,
		square:     params.SquareClient,
		tx:         params.TransactionRunner,
		outbox:     params.Outbox,
		locationID: strings.TrimSpace(params.LocationID),
		currency:   currency,
		now:        time.Now,
	}, nil
}

// RecordPayment validates the tendered amount against the corresponding bill
// and records the settlement. Card payments are charged through Square before
// the row is written; the charge outcome is recorded either way, so a
// declined card still leaves a failed row and a payment.recorded event.
func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentDTO, error) {
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	session, err := s.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.SessionStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}

	dinerName := strings.TrimSpace(input.DinerName)
	var dinerRef *string
	if dinerName != "" {
		if !sessionHasDiner(session, dinerName) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "diner is not registered in this session")
		}
		dinerRef = &dinerName
	}

	expected, err := s.expectedCents(ctx, input.SessionID, dinerName)
	if err != nil {
		return nil, err
	}
	if diff := input.AmountCents - expected; diff > amountToleranceCents || diff < -amountToleranceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match the bill").
			WithDetails(map[string]any{
				"expected_cents": expected,
				"amount_cents":   input.AmountCents,
			})
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		SessionID:   input.SessionID,
		DinerName:   dinerRef,
		Method:      input.Method,
		Status:      enums.PaymentStatusPending,
		AmountCents: input.AmountCents,
		Currency:    s.currency,
	}

	var chargeErr error
	switch input.Method {
	case enums.PaymentMethodCash:
		payment.Status = enums.PaymentStatusCompleted
	case enums.PaymentMethodCard:
		sourceID := strings.TrimSpace(input.SourceID)
		if sourceID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "source_id is required for card payments")
		}
		chargeErr = s.chargeCard(ctx, payment, sourceID)
	}

	recordedAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         actorFor(dinerRef),
			Version:       1,
			OccurredAt:    recordedAt,
			Data: payloads.PaymentRecordedEvent{
				PaymentID:   payment.ID,
				SessionID:   payment.SessionID,
				DinerName:   payment.DinerName,
				Method:      payment.Method,
				Status:      payment.Status,
				AmountCents: payment.AmountCents,
				Currency:    payment.Currency,
				RecordedAt:  recordedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
		}
		return s.sessions.TouchTx(ctx, tx, input.SessionID, recordedAt)
	})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return nil, chargeErr
	}
	return FromModel(payment), nil
}

func (s *service) ListPayments(ctx context.Context, sessionID uuid.UUID) ([]PaymentDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return FromModels(rows), nil
}

// chargeCard runs the Square charge outside any DB transaction and folds the
// outcome into the payment row. The row ID doubles as the Square idempotency
// key so a transport retry cannot double charge.
func (s *service) chargeCard(ctx context.Context, payment *models.Payment, sourceID string) error {
	result, err := s.square.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    payment.AmountCents,
		Currency:       string(payment.Currency),
		LocationID:     s.locationID,
		SourceID:       sourceID,
		IdempotencyKey: payment.ID.String(),
		ReferenceID:    payment.SessionID.String(),
	})
	if err != nil {
		reason := err.Error()
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		return err
	}
	if result == nil {
		reason := "square payment response is nil"
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		return pkgerrors.New(pkgerrors.CodeDependency, reason)
	}

	if id := result.GetID(); id != nil && strings.TrimSpace(*id) != "" {
		trimmed := strings.TrimSpace(*id)
		payment.SquarePaymentID = &trimmed
	}
	payment.Status, payment.FailureReason = paymentOutcome(result)
	return nil
}

func (s *service) expectedCents(ctx context.Context, sessionID uuid.UUID, dinerName string) (int64, error) {
	if dinerName == "" {
		bill, err := s.bills.ComputeSessionBill(ctx, sessionID)
		if err != nil {
			return 0, err
		}
		return bill.TotalCents, nil
	}
	bill, err := s.bills.ComputeDinerBill(ctx, sessionID, dinerName)
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

// paymentOutcome maps a Square payment status onto the local lifecycle.
// Unknown and in-flight statuses stay pending until reconciled.
func paymentOutcome(result *sq.Payment) (enums.PaymentStatus, *string) {
	status := strings.ToUpper(strings.TrimSpace(stringValue(result.GetStatus())))
	switch status {
	case "COMPLETED":
		return enums.PaymentStatusCompleted, nil
	case "FAILED", "CANCELED":
		reason := "square payment " + strings.ToLower(status)
		return enums.PaymentStatusFailed, &reason
	default:
		return enums.PaymentStatusPending, nil
	}
}

func actorFor(dinerName *string) *outbox.ActorRef {
	if dinerName == nil {
		return nil
	}
	return &outbox.ActorRef{Diner: *dinerName, Role: "diner"}
}

func sessionHasDiner(session *models.DiningSession, name string) bool {
	for _, diner := range session.Diners {
		if diner.Name == name {
			return true
		}
	}
	return false
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
