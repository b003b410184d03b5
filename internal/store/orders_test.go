package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flowbridge/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "orders.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleOrder(id string) domain.Order {
	return domain.Order{
		ID:              id,
		PhoneNumber:     "+15551234567",
		NumberOfPads:    3,
		DeliveryAddress: "12 Main St",
		Status:          domain.OrderStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateOrder(ctx, sampleOrder("o1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PhoneNumber != "+15551234567" || got.NumberOfPads != 3 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Status != domain.OrderStatusPending {
		t.Errorf("expected Pending, got %s", got.Status)
	}
	if got.SpecialInstructions != nil {
		t.Errorf("expected nil instructions, got %q", *got.SpecialInstructions)
	}
}

func TestCreateOrder_SpecialInstructions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order := sampleOrder("o2")
	note := "leave at the gate"
	order.SpecialInstructions = &note
	if err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetOrder(ctx, "o2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SpecialInstructions == nil || *got.SpecialInstructions != note {
		t.Errorf("instructions not preserved: %+v", got.SpecialInstructions)
	}
}

func TestCreateOrder_EmptyInstructionsStoredAsNull(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order := sampleOrder("o3")
	empty := ""
	order.SpecialInstructions = &empty
	if err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetOrder(ctx, "o3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SpecialInstructions != nil {
		t.Errorf("empty instructions must store as NULL, got %q", *got.SpecialInstructions)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetOrder(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCreateOrder_DuplicateIDRejected(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateOrder(ctx, sampleOrder("dup")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateOrder(ctx, sampleOrder("dup")); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestListOrderIDsByPhone(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		order := sampleOrder(id)
		if err := s.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	other := sampleOrder("c")
	other.PhoneNumber = "+15550000000"
	if err := s.CreateOrder(ctx, other); err != nil {
		t.Fatalf("create c: %v", err)
	}

	ids, err := s.ListOrderIDsByPhone(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}

	none, err := s.ListOrderIDsByPhone(ctx, "+10000000000")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no ids, got %v", none)
	}
}
