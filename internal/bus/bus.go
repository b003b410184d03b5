package bus

import (
	"log/slog"
	"sync"
	"time"

	"flowbridge/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based delivery queue decoupling the webhook
// handler from the dispatch workers: the handler enqueues and acks, the
// workers drain.
type InMemoryBus struct {
	deliveries chan domain.Delivery
	mu         sync.RWMutex
	closed     bool
	logger     *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		deliveries: make(chan domain.Delivery, bufferSize),
		logger:     logger,
	}
}

// Blocks up to 10 seconds if the bus is full instead of dropping.
func (b *InMemoryBus) Publish(d domain.Delivery) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.deliveries <- d:
	default:
		// Bus full: wait with timeout instead of dropping
		b.logger.Warn("delivery bus full, waiting...", "kind", d.Message.Kind.String(), "sender", d.Message.SenderID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.deliveries <- d:
			b.logger.Info("delivery enqueued after wait", "kind", d.Message.Kind.String())
		case <-timer.C:
			b.logger.Error("delivery dropped: bus full for 10s",
				"kind", d.Message.Kind.String(),
				"sender", d.Message.SenderID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Delivery {
	return b.deliveries
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.deliveries)
	}
}
