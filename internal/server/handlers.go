package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flowbridge/internal/channel"
	"flowbridge/internal/directive"
	"flowbridge/internal/domain"
	"flowbridge/internal/flow"
)

// handleFlowCallback receives a flow engine reply and relays it to the
// provider. The callback text is decoded into a directive; undecodable text
// goes out verbatim as plain text, and an unknown structured type is dropped
// without an error so the engine never sees a parse failure.
func (s *Server) handleFlowCallback(w http.ResponseWriter, r *http.Request) {
	var payload flow.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	d := directive.Parse(payload.Text)
	if d.Kind == domain.DirectiveUnknown {
		s.logger.Warn("dropping unrecognized directive", "to", payload.To)
		w.Write([]byte("success"))
		return
	}

	if err := s.sender.SendDirective(r.Context(), payload.To, d); err != nil {
		s.logger.Error("callback relay failed", "to", payload.To, "kind", d.Kind.String(), "err", err)
		http.Error(w, "delivery failed", http.StatusBadGateway)
		return
	}

	w.Write([]byte("success"))
}

// orderEvent is the flow engine's completed-order event.
type orderEvent struct {
	Contact struct {
		URN string `json:"urn"`
	} `json:"contact"`
	Flow    map[string]any       `json:"flow,omitempty"`
	Results channel.OrderResults `json:"results"`
}

func (s *Server) handleProcessOrder(w http.ResponseWriter, r *http.Request) {
	var event orderEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	phone := domain.NormalizeSenderID(event.Contact.URN)
	result, err := s.orders.Create(r.Context(), phone, *event.Results.Fields())
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteOrder) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("order processing failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Error processing order")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrdersByPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ids, err := s.orders.OrderIDsByPhone(r.Context(), req.PhoneNumber)
	if err != nil {
		s.logger.Error("order lookup failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Error retrieving orders")
		return
	}
	if len(ids) == 0 {
		writeJSONError(w, http.StatusNotFound, "No orders found for this phone number")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"order_ids": ids})
}

// orderResponse is the wire shape of one order record.
type orderResponse struct {
	ID                  string    `json:"id"`
	PhoneNumber         string    `json:"phone_number"`
	NumberOfPads        int       `json:"number_of_pads"`
	DeliveryAddress     string    `json:"delivery_address"`
	SpecialInstructions *string   `json:"special_instructions"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

func (s *Server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	record, err := s.orders.OrderByID(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSONError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.Error("order lookup failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Error retrieving order")
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		ID:                  record.ID,
		PhoneNumber:         record.PhoneNumber,
		NumberOfPads:        record.NumberOfPads,
		DeliveryAddress:     record.DeliveryAddress,
		SpecialInstructions: record.SpecialInstructions,
		Status:              record.Status,
		CreatedAt:           record.CreatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
