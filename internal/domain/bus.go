package domain

import "context"

// DeliveryBus queues normalized deliveries between the webhook boundary and
// the dispatch workers.
type DeliveryBus interface {
	Publish(d Delivery)
	Subscribe() <-chan Delivery
	Close()
}

// Forwarder hands inbound text to the flow engine, tagged with the sender id.
type Forwarder interface {
	Forward(ctx context.Context, sender, text string) error
}

// Sender delivers outbound messages to the channel provider.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendDirective(ctx context.Context, to string, d Directive) error
}
