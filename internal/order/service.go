// Package order implements order intake: validating the collected flow
// answers and recording exactly one durable order per valid event.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowbridge/internal/domain"
	"flowbridge/internal/metrics"
)

// Service validates order fields and persists orders.
type Service struct {
	store  domain.OrderStore
	logger *slog.Logger
}

type ServiceConfig struct {
	Store  domain.OrderStore
	Logger *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{store: cfg.Store, logger: cfg.Logger}
}

// Result is returned to the caller after a successful intake.
type Result struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
}

// Create records one order with a fresh id and Pending status in a single
// transaction. Incomplete fields fail before anything is written.
//
// Each call inserts a new record: a redelivered order event produces a
// duplicate, since neither event shape carries an idempotency key to
// deduplicate on.
func (s *Service) Create(ctx context.Context, senderID string, fields domain.OrderFields) (*Result, error) {
	pads, err := validate(fields)
	if err != nil {
		metrics.Collector.IncOrdersRejected()
		return nil, err
	}

	record := domain.Order{
		ID:                  uuid.NewString(),
		PhoneNumber:         senderID,
		NumberOfPads:        pads,
		DeliveryAddress:     fields.DeliveryAddress,
		SpecialInstructions: fields.SpecialInstructions,
		Status:              domain.OrderStatusPending,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.store.CreateOrder(ctx, record); err != nil {
		s.logger.Error("order create failed", "err", err, "phone", senderID)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", "order_id", record.ID, "phone", senderID, "pads", pads)
	metrics.Collector.IncOrdersCreated()

	return &Result{Status: record.Status, OrderID: record.ID}, nil
}

// OrderByID fetches one order record.
func (s *Service) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// OrderIDsByPhone lists the ids of all orders placed from a phone number.
func (s *Service) OrderIDsByPhone(ctx context.Context, phoneNumber string) ([]string, error) {
	return s.store.ListOrderIDsByPhone(ctx, phoneNumber)
}

func validate(fields domain.OrderFields) (int, error) {
	padsRaw := strings.TrimSpace(fields.PadsRequested)
	if padsRaw == "" {
		return 0, fmt.Errorf("%w: pads_requested missing", domain.ErrIncompleteOrder)
	}
	pads, err := strconv.Atoi(padsRaw)
	if err != nil || pads <= 0 {
		return 0, fmt.Errorf("%w: pads_requested %q is not a positive number", domain.ErrIncompleteOrder, fields.PadsRequested)
	}
	if strings.TrimSpace(fields.DeliveryAddress) == "" {
		return 0, fmt.Errorf("%w: delivery_address missing", domain.ErrIncompleteOrder)
	}
	// The field group must be present in the event even though its value may
	// be empty.
	if fields.SpecialInstructions == nil {
		return 0, fmt.Errorf("%w: special_instructions missing", domain.ErrIncompleteOrder)
	}
	return pads, nil
}
