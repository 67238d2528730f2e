package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/internal/sessions"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

type ordersTxRunner struct {
	conn *gorm.DB
}

func (r *ordersTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

func newOrdersService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(conn), sessions.NewRepository(conn), &ordersTxRunner{conn: conn})
	if err != nil {
		t.Fatalf("building orders service: %v", err)
	}
	return svc
}

func TestOrdersMarkLineServed(t *testing.T) {
	world := newOrdersTestWorld(t, "orders_svc_serve", 7, enums.SessionStatusOpen)
	svc := newOrdersService(t, world.conn)
	ctx := context.Background()

	line := world.addLine(t, enums.LineStatusConfirmed, at(t, "2026-03-01T19:00:00Z"))

	dto, err := svc.MarkLineServed(ctx, line.ID)
	if err != nil {
		t.Fatalf("marking line served: %v", err)
	}
	if dto.ServedAt == nil {
		t.Fatal("expected served_at on the returned line")
	}
	if dto.Version != 1 {
		t.Fatalf("expected version 1 after serve, got %d", dto.Version)
	}
	if dto.ItemName != "Braised Oxtail" {
		t.Fatalf("expected item name on the staff view, got %q", dto.ItemName)
	}

	var session models.DiningSession
	if err := world.conn.First(&session, "id = ?", world.session.ID).Error; err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if !session.LastActivityAt.After(world.session.LastActivityAt) {
		t.Fatal("expected serving to refresh session activity")
	}

	_, err = svc.MarkLineServed(ctx, line.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on second serve, got %v", err)
	}
}

func TestOrdersMarkLineServedValidation(t *testing.T) {
	world := newOrdersTestWorld(t, "orders_svc_validate", 7, enums.SessionStatusOpen)
	svc := newOrdersService(t, world.conn)
	ctx := context.Background()

	cartLine := world.addLine(t, enums.LineStatusCart, nil)
	_, err := svc.MarkLineServed(ctx, cartLine.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for a cart line, got %v", err)
	}

	_, err = svc.MarkLineServed(ctx, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown line, got %v", err)
	}
}

func TestOrdersListOpenOrdersDropsServedLines(t *testing.T) {
	world := newOrdersTestWorld(t, "orders_svc_queue", 7, enums.SessionStatusOpen)
	svc := newOrdersService(t, world.conn)
	ctx := context.Background()

	oldest := world.addLine(t, enums.LineStatusConfirmed, at(t, "2026-03-01T19:00:00Z"))
	newest := world.addLine(t, enums.LineStatusConfirmed, at(t, "2026-03-01T19:30:00Z"))

	queue, err := svc.ListOpenOrders(ctx)
	if err != nil {
		t.Fatalf("listing open orders: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 queued lines, got %d", len(queue))
	}
	if queue[0].LineID != oldest.ID || queue[1].LineID != newest.ID {
		t.Fatal("expected oldest confirmation first")
	}
	if queue[0].TableNumber != 7 {
		t.Fatalf("expected table 7 on the ticket, got %d", queue[0].TableNumber)
	}

	if _, err := svc.MarkLineServed(ctx, oldest.ID); err != nil {
		t.Fatalf("marking line served: %v", err)
	}

	queue, err = svc.ListOpenOrders(ctx)
	if err != nil {
		t.Fatalf("listing open orders after serve: %v", err)
	}
	if len(queue) != 1 || queue[0].LineID != newest.ID {
		t.Fatalf("expected only the unserved line on the queue, got %d entries", len(queue))
	}
}

func TestOrdersListConfirmedBySessionKeepsServedLines(t *testing.T) {
	world := newOrdersTestWorld(t, "orders_svc_session_view", 7, enums.SessionStatusOpen)
	svc := newOrdersService(t, world.conn)
	ctx := context.Background()

	line := world.addLine(t, enums.LineStatusConfirmed, at(t, "2026-03-01T19:00:00Z"))
	world.addLine(t, enums.LineStatusCart, nil)

	if _, err := svc.MarkLineServed(ctx, line.ID); err != nil {
		t.Fatalf("marking line served: %v", err)
	}

	view, err := svc.ListConfirmedBySession(ctx, world.session.ID)
	if err != nil {
		t.Fatalf("listing session orders: %v", err)
	}
	if len(view) != 1 {
		t.Fatalf("expected 1 confirmed line, got %d", len(view))
	}
	if view[0].ServedAt == nil {
		t.Fatal("expected served line to stay on the session view")
	}
	if view[0].LineTotal != "95.00" {
		t.Fatalf("expected line total 95.00, got %s", view[0].LineTotal)
	}

	_, err = svc.ListConfirmedBySession(ctx, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
}

func TestOrdersServeRefreshesActivityInSameTx(t *testing.T) {
	world := newOrdersTestWorld(t, "orders_svc_touch", 7, enums.SessionStatusOpen)
	conn := world.conn

	stale := time.Now().Add(-45 * time.Minute)
	if err := conn.Model(&models.DiningSession{}).
		Where("id = ?", world.session.ID).
		Update("last_activity_at", stale).Error; err != nil {
		t.Fatalf("backdating session: %v", err)
	}

	svc := newOrdersService(t, conn)
	line := world.addLine(t, enums.LineStatusConfirmed, at(t, "2026-03-01T19:00:00Z"))
	if _, err := svc.MarkLineServed(context.Background(), line.ID); err != nil {
		t.Fatalf("marking line served: %v", err)
	}

	var session models.DiningSession
	if err := conn.First(&session, "id = ?", world.session.ID).Error; err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if session.LastActivityAt.Before(time.Now().Add(-time.Minute)) {
		t.Fatal("expected serve to move last_activity_at forward")
	}
}
