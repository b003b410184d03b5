package channel

import "flowbridge/internal/domain"

// Outbound payload shapes for the Cloud API /messages call. One wire struct
// per message kind; the common wrapper fields ride on each.

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactivePayload struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Interactive      interactive `json:"interactive"`
}

type interactive struct {
	Type   string             `json:"type"`
	Header *interactiveHeader `json:"header,omitempty"`
	Body   *interactiveText   `json:"body,omitempty"`
	Footer *interactiveText   `json:"footer,omitempty"`
	Action interactiveAction  `json:"action"`
}

type interactiveHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type interactiveText struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Button   string           `json:"button,omitempty"`
	Sections []domain.Section `json:"sections,omitempty"`
	Name     string           `json:"name,omitempty"`
}

// Compose compiles a directive into the provider payload for the given
// recipient. Pure construction, no I/O. The second return is false for the
// inert kinds (image, catalog, unknown): nothing is sent for those.
func Compose(d domain.Directive, to string) (any, bool) {
	switch d.Kind {
	case domain.DirectiveText:
		return textPayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: d.Body},
		}, true

	case domain.DirectiveInteractiveList:
		// Section and row order is preserved verbatim: the channel renders
		// the list in exactly this order. Header and footer are optional in
		// the Cloud API and are omitted when the directive leaves them blank.
		i := interactive{
			Type: "list",
			Body: &interactiveText{Text: d.Body},
			Action: interactiveAction{
				Button:   d.ButtonLabel,
				Sections: d.Sections,
			},
		}
		if d.Header != "" {
			i.Header = &interactiveHeader{Type: "text", Text: d.Header}
		}
		if d.Footer != "" {
			i.Footer = &interactiveText{Text: d.Footer}
		}
		return interactivePayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "interactive",
			Interactive:      i,
		}, true

	case domain.DirectiveLocationRequest:
		return interactivePayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "interactive",
			Interactive: interactive{
				Type:   "location_request_message",
				Body:   &interactiveText{Text: d.Body},
				Action: interactiveAction{Name: "send_location"},
			},
		}, true

	case domain.DirectiveImage, domain.DirectiveCatalog:
		// Reserved kinds: recognized but not yet sendable.
		return nil, false

	default:
		return nil, false
	}
}
