// Package channel implements the WhatsApp Cloud API boundary: webhook
// verification and intake on the inbound side, payload composition and the
// /messages send call on the outbound side.
package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"flowbridge/internal/config"
	"flowbridge/internal/domain"
	"flowbridge/internal/metrics"
	"flowbridge/internal/transport"
)

// WhatsApp is the channel-provider adapter. Inbound webhook deliveries are
// normalized and enqueued on the bus; outbound sends go through the shared
// transport client.
type WhatsApp struct {
	cfg    config.WhatsAppConfig
	bus    domain.DeliveryBus
	logger *slog.Logger
	client *http.Client
	mux    *http.ServeMux
}

type WhatsAppChannelConfig struct {
	Config config.WhatsAppConfig
	Bus    domain.DeliveryBus
	Logger *slog.Logger
	Client *http.Client
}

func NewWhatsApp(cfg WhatsAppChannelConfig) *WhatsApp {
	client := cfg.Client
	if client == nil {
		client = transport.NewClient(30 * time.Second)
	}

	w := &WhatsApp{
		cfg:    cfg.Config,
		bus:    cfg.Bus,
		logger: cfg.Logger,
		client: client,
	}

	webhookPath := w.cfg.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}

	w.mux = http.NewServeMux()
	w.mux.HandleFunc("GET "+webhookPath, w.handleVerification)
	w.mux.HandleFunc("POST "+webhookPath, w.handleIncoming)

	return w
}

func (w *WhatsApp) Name() string { return "whatsapp" }

// Handler returns the webhook handler (to be mounted on the main mux).
func (w *WhatsApp) Handler() http.Handler { return w.mux }

// --- Webhook handlers ---

// handleVerification handles the subscription verification challenge.
func (w *WhatsApp) handleVerification(rw http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == w.cfg.VerifyToken {
		w.logger.Info("whatsapp webhook verified")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprint(rw, html.EscapeString(challenge))
		return
	}

	w.logger.Warn("whatsapp webhook verification failed", "mode", mode)
	http.Error(rw, "Forbidden", http.StatusForbidden)
}

// handleIncoming normalizes one webhook delivery and enqueues it. The
// response is written as soon as the delivery is on the bus; downstream
// forwarding never delays the provider's ack.
func (w *WhatsApp) handleIncoming(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
	if err != nil {
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature when an app secret is configured.
	if w.cfg.AppSecret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if !w.verifySignature(body, sig) {
			w.logger.Warn("whatsapp invalid signature")
			http.Error(rw, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		w.logger.Warn("whatsapp bad payload", "err", err)
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	delivery, err := Normalize(env)
	if err != nil {
		w.logger.Warn("whatsapp malformed envelope", "err", err)
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	if delivery == nil {
		// Status-only delivery: acknowledge, nothing to dispatch.
		rw.WriteHeader(http.StatusOK)
		return
	}

	w.logger.Info("whatsapp message received",
		"from", delivery.Message.SenderID, "kind", delivery.Message.Kind.String())
	metrics.Collector.IncInbound(delivery.Message.Kind.String())

	w.bus.Publish(*delivery)
	rw.WriteHeader(http.StatusOK)
}

// verifySignature checks the X-Hub-Signature-256 header.
func (w *WhatsApp) verifySignature(body []byte, signature string) bool {
	if len(signature) < 7 || signature[:7] != "sha256=" {
		return false
	}
	expected := signature[7:]

	mac := hmac.New(sha256.New, []byte(w.cfg.AppSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(computed))
}

// --- Outbound sends ---

// SendText sends a plain text message.
func (w *WhatsApp) SendText(ctx context.Context, to string, body string) error {
	return w.SendDirective(ctx, to, domain.Directive{Kind: domain.DirectiveText, Body: body})
}

// SendDirective compiles a directive and posts it to the Cloud API. The
// inert directive kinds are a successful no-op.
func (w *WhatsApp) SendDirective(ctx context.Context, to string, d domain.Directive) error {
	payload, ok := Compose(d, to)
	if !ok {
		w.logger.Debug("directive not sendable, skipping", "kind", d.Kind.String())
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.cfg.APIBase, w.cfg.PhoneNumberID)

	resp, err := transport.DoWithRetry(ctx, w.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)
		return req, nil
	}, w.logger)
	if err != nil {
		metrics.Collector.IncSendFailed()
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Collector.IncSendFailed()
		return fmt.Errorf("whatsapp API %d: %s", resp.StatusCode, string(respBody))
	}

	metrics.Collector.IncSent(d.Kind.String())
	return nil
}
