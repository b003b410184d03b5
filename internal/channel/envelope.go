package channel

import (
	"strconv"
	"time"

	"flowbridge/internal/domain"
)

// --- WhatsApp webhook payload types ---

type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value *Value `json:"value"`
	Field string `json:"field"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// Status is a delivery-status update. The bridge acknowledges these but
// takes no action on them.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Location    *Location    `json:"location,omitempty"`
	Order       *OrderInfo   `json:"order,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type      string     `json:"type"`
	ListReply *ListReply `json:"list_reply,omitempty"`
}

type ListReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// OrderInfo wraps the nested results structure carried by an order message.
type OrderInfo struct {
	Results OrderResults `json:"results"`
}

// OrderResults holds the collected flow answers for an order. Each field
// group is a pointer so a missing group can be told apart from an empty
// value; intake rejects the former.
type OrderResults struct {
	PadsRequested       *FieldValue `json:"pads_requested,omitempty"`
	DeliveryAddress     *FieldValue `json:"delivery_address,omitempty"`
	SpecialInstructions *FieldValue `json:"special_instructions,omitempty"`
}

type FieldValue struct {
	Value string `json:"value"`
}

// Fields flattens the results structure into domain.OrderFields.
func (r OrderResults) Fields() *domain.OrderFields {
	fields := &domain.OrderFields{}
	if r.PadsRequested != nil {
		fields.PadsRequested = r.PadsRequested.Value
	}
	if r.DeliveryAddress != nil {
		fields.DeliveryAddress = r.DeliveryAddress.Value
	}
	if r.SpecialInstructions != nil {
		v := r.SpecialInstructions.Value
		fields.SpecialInstructions = &v
	}
	return fields
}

// --- Normalization ---

// Normalize converts a webhook envelope into zero-or-one delivery.
// A nil delivery with nil error means the envelope carried no messages
// (status-only updates). A missing entry/changes/value nesting is a hard
// classification failure.
func Normalize(env Envelope) (*domain.Delivery, error) {
	if len(env.Entry) == 0 || len(env.Entry[0].Changes) == 0 || env.Entry[0].Changes[0].Value == nil {
		return nil, domain.ErrMalformedEnvelope
	}

	value := env.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil, nil
	}

	msg := value.Messages[0]
	canonical := domain.CanonicalMessage{
		SenderID: domain.NormalizeSenderID(msg.From),
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return nil, domain.ErrMalformedEnvelope
		}
		canonical.Kind = domain.KindText
		canonical.TextBody = msg.Text.Body
	case "interactive":
		// Only list replies are routable; other interactive subtypes
		// (button replies etc.) are treated like unrecognized kinds.
		if msg.Interactive == nil || msg.Interactive.ListReply == nil {
			canonical.Kind = domain.KindUnknown
			break
		}
		canonical.Kind = domain.KindInteractiveReply
		canonical.ReplyID = msg.Interactive.ListReply.ID
	case "location":
		if msg.Location == nil {
			return nil, domain.ErrMalformedEnvelope
		}
		canonical.Kind = domain.KindLocation
		canonical.Latitude = msg.Location.Latitude
		canonical.Longitude = msg.Location.Longitude
	case "order":
		canonical.Kind = domain.KindOrder
		if msg.Order != nil {
			canonical.Order = msg.Order.Results.Fields()
		} else {
			canonical.Order = &domain.OrderFields{}
		}
	case "reaction":
		canonical.Kind = domain.KindReaction
	case "image":
		canonical.Kind = domain.KindImage
	default:
		canonical.Kind = domain.KindUnknown
	}

	if ts, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		canonical.Timestamp = time.Unix(ts, 0).UTC()
	}

	return &domain.Delivery{
		Message: canonical,
		Meta: domain.ChannelMeta{
			PhoneNumberID:      value.Metadata.PhoneNumberID,
			DisplayPhoneNumber: value.Metadata.DisplayPhoneNumber,
		},
	}, nil
}
