package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"flowbridge/internal/bus"
	"flowbridge/internal/channel"
	"flowbridge/internal/config"
	"flowbridge/internal/domain"
	"flowbridge/internal/order"
)

type fakeOrderStore struct {
	created []domain.Order
	fail    error
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, o domain.Order) error {
	if f.fail != nil {
		return f.fail
	}
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	for i := range f.created {
		if f.created[i].ID == id {
			return &f.created[i], nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderStore) ListOrderIDsByPhone(ctx context.Context, phone string) ([]string, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	var ids []string
	for _, o := range f.created {
		if o.PhoneNumber == phone {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

func (f *fakeOrderStore) Close() error { return nil }

type fakeSender struct {
	directives []domain.Directive
	recipients []string
	fail       error
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) error {
	return f.SendDirective(ctx, to, domain.Directive{Kind: domain.DirectiveText, Body: body})
}

func (f *fakeSender) SendDirective(ctx context.Context, to string, d domain.Directive) error {
	if f.fail != nil {
		return f.fail
	}
	f.directives = append(f.directives, d)
	f.recipients = append(f.recipients, to)
	return nil
}

func testServerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(store *fakeOrderStore, sender *fakeSender) *Server {
	logger := testServerLogger()
	wa := channel.NewWhatsApp(channel.WhatsAppChannelConfig{
		Config: config.WhatsAppConfig{WebhookPath: "/webhook"},
		Bus:    bus.New(10, logger),
		Logger: logger,
	})
	return New(ServerConfig{
		Config:      config.ServerConfig{Host: "127.0.0.1", Port: 0},
		WebhookPath: "/webhook",
		WhatsApp:    wa,
		Sender:      sender,
		Orders:      order.NewService(order.ServiceConfig{Store: store, Logger: logger}),
		Logger:      logger,
	})
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

// --- /callback ---

func TestCallback_ProseForwardedVerbatim(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(&fakeOrderStore{}, sender)

	rr := postJSON(t, s, "/callback", `{"id":"1","to":"+1555","to_no_plus":"1555","from":"bot","from_no_plus":"bot","channel":"c1","text":"Hello there!"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(sender.directives) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.directives))
	}
	d := sender.directives[0]
	if d.Kind != domain.DirectiveText || d.Body != "Hello there!" {
		t.Errorf("unexpected directive: %+v", d)
	}
	if sender.recipients[0] != "+1555" {
		t.Errorf("unexpected recipient: %q", sender.recipients[0])
	}
}

func TestCallback_InteractiveListDecoded(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(&fakeOrderStore{}, sender)

	payload := map[string]string{
		"id": "1", "to": "+1555", "to_no_plus": "1555",
		"from": "bot", "from_no_plus": "bot", "channel": "c1",
		"text": "type: interactive\nheader: null\nbody: Pick one\nfooter: null\nbutton: Go\nsections:\n  - title: A\n    rows:\n      - id: r1\n        title: Row1\n        description: d",
	}
	body, _ := json.Marshal(payload)

	rr := postJSON(t, s, "/callback", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(sender.directives) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.directives))
	}
	d := sender.directives[0]
	if d.Kind != domain.DirectiveInteractiveList || d.Body != "Pick one" || d.ButtonLabel != "Go" {
		t.Errorf("unexpected directive: %+v", d)
	}
	if len(d.Sections) != 1 || d.Sections[0].Rows[0].ID != "r1" {
		t.Errorf("sections not decoded: %+v", d.Sections)
	}
}

func TestCallback_UnknownDirectiveDropped(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(&fakeOrderStore{}, sender)

	rr := postJSON(t, s, "/callback", `{"id":"1","to":"+1555","to_no_plus":"","from":"","from_no_plus":"","channel":"","text":"type: carousel\nbody: x"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("drop must still ack, got %d", rr.Code)
	}
	if len(sender.directives) != 0 {
		t.Errorf("unknown directive must not be sent: %+v", sender.directives)
	}
}

func TestCallback_SendFailure(t *testing.T) {
	sender := &fakeSender{fail: errors.New("provider down")}
	s := newTestServer(&fakeOrderStore{}, sender)

	rr := postJSON(t, s, "/callback", `{"id":"1","to":"+1555","to_no_plus":"","from":"","from_no_plus":"","channel":"","text":"hi"}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rr.Code)
	}
}

func TestCallback_BadJSON(t *testing.T) {
	s := newTestServer(&fakeOrderStore{}, &fakeSender{})
	rr := postJSON(t, s, "/callback", "nope")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

// --- /process-order ---

const validOrderEvent = `{
	"contact": {"urn": "tel:+15551234567"},
	"flow": {"name": "order-flow"},
	"results": {
		"pads_requested": {"value": "3"},
		"delivery_address": {"value": "12 Main St"},
		"special_instructions": {"value": "ring twice"}
	}
}`

func TestProcessOrder_Valid(t *testing.T) {
	store := &fakeOrderStore{}
	s := newTestServer(store, &fakeSender{})

	rr := postJSON(t, s, "/process-order", validOrderEvent)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result order.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Status != domain.OrderStatusPending || result.OrderID == "" {
		t.Errorf("unexpected result: %+v", result)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one record, got %d", len(store.created))
	}
	record := store.created[0]
	if record.PhoneNumber != "+15551234567" {
		t.Errorf("urn prefix must be stripped, got %q", record.PhoneNumber)
	}
	if record.NumberOfPads != 3 || record.DeliveryAddress != "12 Main St" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestProcessOrder_MissingField(t *testing.T) {
	store := &fakeOrderStore{}
	s := newTestServer(store, &fakeSender{})

	event := `{
		"contact": {"urn": "tel:+1555"},
		"results": {
			"pads_requested": {"value": "3"},
			"delivery_address": {"value": "12 Main St"}
		}
	}`
	rr := postJSON(t, s, "/process-order", event)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(store.created) != 0 {
		t.Error("no record must be stored for incomplete fields")
	}
}

func TestProcessOrder_StorageFailure(t *testing.T) {
	store := &fakeOrderStore{fail: errors.New("db locked")}
	s := newTestServer(store, &fakeSender{})

	rr := postJSON(t, s, "/process-order", validOrderEvent)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

// --- order queries ---

func TestOrdersByPhone(t *testing.T) {
	store := &fakeOrderStore{created: []domain.Order{
		{ID: "o1", PhoneNumber: "+1555", Status: domain.OrderStatusPending, CreatedAt: time.Now()},
		{ID: "o2", PhoneNumber: "+1555", Status: domain.OrderStatusPending, CreatedAt: time.Now()},
	}}
	s := newTestServer(store, &fakeSender{})

	rr := postJSON(t, s, "/orders", `{"phone_number": "+1555"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp["order_ids"]) != 2 {
		t.Errorf("expected 2 ids, got %v", resp)
	}
}

func TestOrdersByPhone_NotFound(t *testing.T) {
	s := newTestServer(&fakeOrderStore{}, &fakeSender{})
	rr := postJSON(t, s, "/orders", `{"phone_number": "+1999"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestOrderByID(t *testing.T) {
	note := "gate code 4"
	store := &fakeOrderStore{created: []domain.Order{{
		ID: "o1", PhoneNumber: "+1555", NumberOfPads: 2, DeliveryAddress: "12 Main St",
		SpecialInstructions: &note, Status: domain.OrderStatusPending, CreatedAt: time.Now(),
	}}}
	s := newTestServer(store, &fakeSender{})

	rr := postJSON(t, s, "/order", `{"order_id": "o1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "o1" || resp.NumberOfPads != 2 || resp.SpecialInstructions == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestOrderByID_NotFound(t *testing.T) {
	s := newTestServer(&fakeOrderStore{}, &fakeSender{})
	rr := postJSON(t, s, "/order", `{"order_id": "missing"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// --- misc ---

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeOrderStore{}, &fakeSender{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestWebhookMountedOnServer(t *testing.T) {
	s := newTestServer(&fakeOrderStore{}, &fakeSender{})
	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=ch", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	// Empty verify token matches the empty configured token.
	if rr.Code != http.StatusOK {
		t.Errorf("expected verification to pass through the mounted handler, got %d", rr.Code)
	}
}
