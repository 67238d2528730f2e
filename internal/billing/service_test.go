package billing

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/internal/cart"
	"github.com/pulanodus/tableserve-backend/internal/sessions"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

func setupBillingTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS dining_sessions (
	id TEXT PRIMARY KEY,
	table_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	last_activity_at DATETIME NOT NULL,
	closed_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS session_diners (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	name TEXT NOT NULL,
	joined_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	category TEXT NOT NULL,
	price NUMERIC NOT NULL,
	available INTEGER NOT NULL DEFAULT 1,
	options TEXT,
	created_at DATETIME,
	updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS cart_lines (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	diner_name TEXT NOT NULL,
	menu_item_id TEXT NOT NULL,
	options_hash TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price NUMERIC NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	is_shared INTEGER NOT NULL DEFAULT 0,
	is_takeaway INTEGER NOT NULL DEFAULT 0,
	customizations TEXT,
	status TEXT NOT NULL DEFAULT 'cart',
	version INTEGER NOT NULL DEFAULT 0,
	confirmed_at DATETIME,
	served_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS split_entries (
	id TEXT PRIMARY KEY,
	line_id TEXT NOT NULL,
	participants TEXT NOT NULL,
	split_count INTEGER NOT NULL,
	original_price NUMERIC NOT NULL,
	split_price NUMERIC NOT NULL,
	created_at DATETIME,
	updated_at DATETIME
)`,
	}
	for _, stmt := range statements {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("creating schema: %v", err)
		}
	}
	return conn
}

type billingFixture struct {
	conn    *gorm.DB
	svc     Service
	session *models.DiningSession
	item    *models.MenuItem
}

func newBillingFixture(t *testing.T, name string, dinerNames ...string) *billingFixture {
	t.Helper()

	conn := setupBillingTestDB(t, name)

	session := &models.DiningSession{
		ID:             uuid.New(),
		TableID:        uuid.New(),
		Status:         enums.SessionStatusOpen,
		LastActivityAt: time.Now(),
	}
	if err := conn.Create(session).Error; err != nil {
		t.Fatalf("creating session: %v", err)
	}
	for _, dinerName := range dinerNames {
		diner := &models.SessionDiner{ID: uuid.New(), SessionID: session.ID, Name: dinerName}
		if err := conn.Create(diner).Error; err != nil {
			t.Fatalf("creating diner: %v", err)
		}
	}

	item := &models.MenuItem{
		ID:        uuid.New(),
		Name:      "Seswaa Platter",
		Category:  "mains",
		Price:     decimal.RequireFromString("85.00"),
		Available: true,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("creating menu item: %v", err)
	}

	svc, err := NewService(
		cart.NewRepository(conn),
		sessions.NewRepository(conn),
		decimal.RequireFromString("0.14"),
	)
	if err != nil {
		t.Fatalf("building billing service: %v", err)
	}
	return &billingFixture{conn: conn, svc: svc, session: session, item: item}
}

func (fx *billingFixture) addLine(t *testing.T, diner string, unitPrice string, quantity int, status enums.LineStatus, shared bool) *models.CartLine {
	t.Helper()

	line := &models.CartLine{
		ID:          uuid.New(),
		SessionID:   fx.session.ID,
		DinerName:   diner,
		MenuItemID:  fx.item.ID,
		OptionsHash: "base",
		Quantity:    quantity,
		UnitPrice:   decimal.RequireFromString(unitPrice),
		IsShared:    shared,
		Status:      status,
	}
	if err := fx.conn.Create(line).Error; err != nil {
		t.Fatalf("creating line: %v", err)
	}
	return line
}

func (fx *billingFixture) addSplit(t *testing.T, line *models.CartLine, participants ...string) *models.SplitEntry {
	t.Helper()

	original := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	entry := &models.SplitEntry{
		ID:            uuid.New(),
		LineID:        line.ID,
		Participants:  types.StringList(participants),
		SplitCount:    len(participants),
		OriginalPrice: original,
		SplitPrice:    original.Div(decimal.NewFromInt(int64(len(participants)))),
	}
	if err := fx.conn.Create(entry).Error; err != nil {
		t.Fatalf("creating split entry: %v", err)
	}
	return entry
}

func TestBillingSessionBillCountsSharedAtFullPrice(t *testing.T) {
	fx := newBillingFixture(t, "billing_session", "Naledi", "Thabo")
	ctx := context.Background()

	fx.addLine(t, "Naledi", "100.00", 1, enums.LineStatusConfirmed, false)
	sharedLine := fx.addLine(t, "Thabo", "50.00", 2, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedLine, "Naledi", "Thabo")
	fx.addLine(t, "Naledi", "999.00", 1, enums.LineStatusCart, false)

	bill, err := fx.svc.ComputeSessionBill(ctx, fx.session.ID)
	if err != nil {
		t.Fatalf("computing session bill: %v", err)
	}
	if len(bill.Lines) != 2 {
		t.Fatalf("expected 2 confirmed lines on the bill, got %d", len(bill.Lines))
	}
	if bill.Subtotal != "200.00" || bill.VAT != "28.00" || bill.Total != "228.00" {
		t.Fatalf("expected 200.00/28.00/228.00, got %s/%s/%s", bill.Subtotal, bill.VAT, bill.Total)
	}
	if bill.SubtotalCents != 20000 || bill.VATCents != 2800 || bill.TotalCents != 22800 {
		t.Fatalf("expected cents 20000/2800/22800, got %d/%d/%d",
			bill.SubtotalCents, bill.VATCents, bill.TotalCents)
	}
}

func TestBillingDinerBillSumsPersonalAndShares(t *testing.T) {
	fx := newBillingFixture(t, "billing_diner", "Naledi", "Thabo")
	ctx := context.Background()

	fx.addLine(t, "Naledi", "100.00", 1, enums.LineStatusConfirmed, false)
	sharedLine := fx.addLine(t, "Thabo", "50.00", 2, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedLine, "Naledi", "Thabo")

	naledi, err := fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Naledi")
	if err != nil {
		t.Fatalf("computing Naledi's bill: %v", err)
	}
	if naledi.PersonalTotal != "100.00" || naledi.SharedTotal != "50.00" {
		t.Fatalf("expected 100.00 personal and 50.00 shared, got %s/%s",
			naledi.PersonalTotal, naledi.SharedTotal)
	}
	if naledi.Total != "171.00" {
		t.Fatalf("expected total 171.00, got %s", naledi.Total)
	}
	if len(naledi.PersonalLines) != 1 || len(naledi.SharedLines) != 1 {
		t.Fatalf("expected 1 personal and 1 shared line, got %d/%d",
			len(naledi.PersonalLines), len(naledi.SharedLines))
	}

	thabo, err := fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Thabo")
	if err != nil {
		t.Fatalf("computing Thabo's bill: %v", err)
	}
	// Thabo owns the shared line, but it still bills as a share, not at full
	// price.
	if thabo.PersonalTotal != "0.00" || thabo.SharedTotal != "50.00" {
		t.Fatalf("expected 0.00 personal and 50.00 shared, got %s/%s",
			thabo.PersonalTotal, thabo.SharedTotal)
	}
	if thabo.Total != "57.00" {
		t.Fatalf("expected total 57.00, got %s", thabo.Total)
	}

	_, err = fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Mmapula")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown diner, got %v", err)
	}
}

func TestBillingDinerPersonalTotalsReconcileWithSessionBill(t *testing.T) {
	fx := newBillingFixture(t, "billing_reconcile", "Naledi", "Thabo", "Kagiso")
	ctx := context.Background()

	fx.addLine(t, "Naledi", "85.00", 2, enums.LineStatusConfirmed, false)
	fx.addLine(t, "Thabo", "45.50", 1, enums.LineStatusConfirmed, false)
	sharedOne := fx.addLine(t, "Naledi", "100.00", 3, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedOne, "Naledi", "Thabo", "Kagiso")
	sharedTwo := fx.addLine(t, "Kagiso", "60.00", 1, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedTwo, "Thabo", "Kagiso")

	sessionBill, err := fx.svc.ComputeSessionBill(ctx, fx.session.ID)
	if err != nil {
		t.Fatalf("computing session bill: %v", err)
	}

	personalSum := decimal.Zero
	for _, dinerName := range []string{"Naledi", "Thabo", "Kagiso"} {
		bill, err := fx.svc.ComputeDinerBill(ctx, fx.session.ID, dinerName)
		if err != nil {
			t.Fatalf("computing %s's bill: %v", dinerName, err)
		}
		personalSum = personalSum.Add(decimal.RequireFromString(bill.PersonalTotal))
	}
	sharedOriginals := decimal.RequireFromString("300.00").Add(decimal.RequireFromString("60.00"))

	reconciled := personalSum.Add(sharedOriginals)
	subtotal := decimal.RequireFromString(sessionBill.Subtotal)
	if !reconciled.Equal(subtotal) {
		t.Fatalf("diner personals %s plus shared originals %s do not reconcile with subtotal %s",
			personalSum, sharedOriginals, subtotal)
	}
}

func TestBillingComputationsAreIdempotent(t *testing.T) {
	fx := newBillingFixture(t, "billing_idempotent", "Naledi", "Thabo")
	ctx := context.Background()

	sharedLine := fx.addLine(t, "Naledi", "100.00", 3, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedLine, "Naledi", "Thabo")

	first, err := fx.svc.ComputeSessionBill(ctx, fx.session.ID)
	if err != nil {
		t.Fatalf("first session bill: %v", err)
	}
	second, err := fx.svc.ComputeSessionBill(ctx, fx.session.ID)
	if err != nil {
		t.Fatalf("second session bill: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("session bill changed between identical reads: %+v vs %+v", first, second)
	}

	firstDiner, err := fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Thabo")
	if err != nil {
		t.Fatalf("first diner bill: %v", err)
	}
	secondDiner, err := fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Thabo")
	if err != nil {
		t.Fatalf("second diner bill: %v", err)
	}
	if !reflect.DeepEqual(firstDiner, secondDiner) {
		t.Fatalf("diner bill changed between identical reads: %+v vs %+v", firstDiner, secondDiner)
	}
}

func TestBillingDinerBillSurfacesLedgerDrift(t *testing.T) {
	fx := newBillingFixture(t, "billing_drift", "Naledi", "Thabo")
	ctx := context.Background()

	sharedLine := fx.addLine(t, "Naledi", "100.00", 2, enums.LineStatusConfirmed, true)
	fx.addSplit(t, sharedLine, "Naledi", "Thabo")

	err := fx.conn.Model(&models.SplitEntry{}).
		Where("line_id = ?", sharedLine.ID).
		Update("split_price", decimal.RequireFromString("10.00")).Error
	if err != nil {
		t.Fatalf("corrupting entry: %v", err)
	}

	_, err = fx.svc.ComputeDinerBill(ctx, fx.session.ID, "Naledi")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error on ledger drift, got %v", err)
	}
}

func TestBillingSessionTotalCents(t *testing.T) {
	fx := newBillingFixture(t, "billing_total_cents", "Naledi")
	ctx := context.Background()

	fx.addLine(t, "Naledi", "100.00", 2, enums.LineStatusConfirmed, false)

	total, err := fx.svc.SessionTotalCents(ctx, fx.session.ID)
	if err != nil {
		t.Fatalf("computing total cents: %v", err)
	}
	if total != 22800 {
		t.Fatalf("expected 22800 thebe, got %d", total)
	}

	_, err = fx.svc.SessionTotalCents(ctx, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
}
