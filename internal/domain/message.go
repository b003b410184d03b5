package domain

import (
	"strings"
	"time"
)

// MessageKind classifies one inbound channel event.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindText
	KindInteractiveReply
	KindLocation
	KindOrder
	KindReaction
	KindImage
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteractiveReply:
		return "interactive_reply"
	case KindLocation:
		return "location"
	case KindOrder:
		return "order"
	case KindReaction:
		return "reaction"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// CanonicalMessage is the normalized form of one inbound delivery.
// Exactly one kind-specific payload field is populated, matching Kind;
// the inert kinds (reaction, image, unknown) carry none.
type CanonicalMessage struct {
	SenderID string
	Kind     MessageKind

	TextBody  string
	ReplyID   string
	Latitude  float64
	Longitude float64
	Order     *OrderFields

	Timestamp time.Time
}

// OrderFields carries the raw field values extracted from an order event,
// before intake validation. SpecialInstructions is nil when the field group
// was absent from the event; a present-but-empty value is allowed.
type OrderFields struct {
	PadsRequested       string
	DeliveryAddress     string
	SpecialInstructions *string
}

// ChannelMeta is the provider metadata attached to a webhook delivery.
type ChannelMeta struct {
	PhoneNumberID      string
	DisplayPhoneNumber string
}

// Delivery is one unit of dispatch work: a normalized message plus the
// channel metadata it arrived with.
type Delivery struct {
	Message CanonicalMessage
	Meta    ChannelMeta
}

// NormalizeSenderID strips known URN protocol prefixes (tel:, whatsapp:)
// from a channel identity. Applied once at the normalization boundary;
// no other formatting is touched.
func NormalizeSenderID(id string) string {
	for _, prefix := range []string{"tel:", "whatsapp:"} {
		if strings.HasPrefix(id, prefix) {
			return strings.TrimPrefix(id, prefix)
		}
	}
	return id
}
