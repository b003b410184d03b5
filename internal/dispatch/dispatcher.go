// Package dispatch routes normalized inbound messages to their one action:
// forward to the flow engine, run order intake, or do nothing.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flowbridge/internal/domain"
	"flowbridge/internal/metrics"
	"flowbridge/internal/order"
)

// orderConfirmation is sent to the customer once their order is recorded.
const orderConfirmation = "Your order has been placed. You will receive a payment link shortly"

// deliveryTimeout bounds the downstream work for one delivery. A timeout is
// reported as a dispatch failure; retrying is the transport layer's business.
const deliveryTimeout = 60 * time.Second

// OrderIntake is the slice of the order service the dispatcher needs.
type OrderIntake interface {
	Create(ctx context.Context, senderID string, fields domain.OrderFields) (*order.Result, error)
}

// Dispatcher maps each canonical message kind to exactly one action.
type Dispatcher struct {
	flow    domain.Forwarder
	sender  domain.Sender
	orders  OrderIntake
	logger  *slog.Logger
	workers int
}

type DispatcherConfig struct {
	Flow    domain.Forwarder
	Sender  domain.Sender
	Orders  OrderIntake
	Logger  *slog.Logger
	Workers int
}

func New(cfg DispatcherConfig) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		flow:    cfg.Flow,
		sender:  cfg.Sender,
		orders:  cfg.Orders,
		logger:  cfg.Logger,
		workers: workers,
	}
}

// Run consumes the bus with a pool of workers until the context is cancelled
// or the bus is closed. Deliveries are handled independently; no ordering is
// guaranteed between messages, including two from the same sender.
func (d *Dispatcher) Run(ctx context.Context, bus domain.DeliveryBus) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case delivery, ok := <-bus.Subscribe():
					if !ok {
						return
					}
					d.handle(ctx, delivery)
				}
			}
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, delivery domain.Delivery) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	kind := delivery.Message.Kind.String()
	if err := d.Dispatch(ctx, delivery); err != nil {
		d.logger.Error("dispatch failed", "kind", kind, "sender", delivery.Message.SenderID, "err", err)
		metrics.Collector.IncDispatchFailed(kind)
		return
	}
	metrics.Collector.IncDispatched(kind)
}

// Dispatch selects and performs the single action for one delivery. The
// switch is exhaustive over MessageKind: the inert kinds succeed as no-ops,
// and an unlisted kind can only be a new enum value, caught by the default.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery domain.Delivery) error {
	msg := delivery.Message

	switch msg.Kind {
	case domain.KindText:
		return d.flow.Forward(ctx, msg.SenderID, msg.TextBody)

	case domain.KindInteractiveReply:
		// The chosen row id travels as plain text: the flow engine does not
		// distinguish list replies from typed input.
		return d.flow.Forward(ctx, msg.SenderID, msg.ReplyID)

	case domain.KindLocation:
		return d.flow.Forward(ctx, msg.SenderID, fmt.Sprintf("%v %v", msg.Latitude, msg.Longitude))

	case domain.KindOrder:
		fields := domain.OrderFields{}
		if msg.Order != nil {
			fields = *msg.Order
		}
		if _, err := d.orders.Create(ctx, msg.SenderID, fields); err != nil {
			return fmt.Errorf("order intake: %w", err)
		}
		return d.sender.SendText(ctx, msg.SenderID, orderConfirmation)

	case domain.KindReaction, domain.KindImage, domain.KindUnknown:
		return nil

	default:
		d.logger.Warn("unmapped message kind ignored", "kind", msg.Kind.String())
		return nil
	}
}
