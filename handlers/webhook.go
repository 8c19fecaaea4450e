// Package handlers provides the HTTP handlers of the dosing bot: the
// webhook receiver, the health check and the liveness page.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/nonthapat/dosebot-api/conversation"
	"github.com/nonthapat/dosebot-api/interfaces"
	"github.com/nonthapat/dosebot-api/logging"
	"github.com/nonthapat/dosebot-api/metrics"
)

// Handler implements the bot's HTTP endpoints with injected dependencies.
type Handler struct {
	engine        *conversation.Engine
	sender        interfaces.ReplySender
	checker       interfaces.HealthChecker
	channelSecret string
	startTime     time.Time
}

// NewHandler creates the HTTP handler set.
func NewHandler(engine *conversation.Engine, sender interfaces.ReplySender,
	checker interfaces.HealthChecker, channelSecret string) *Handler {
	return &Handler{
		engine:        engine,
		sender:        sender,
		checker:       checker,
		channelSecret: channelSecret,
		startTime:     time.Now(),
	}
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookPayload struct {
	Events []webhookEvent `json:"events"`
}

// Webhook receives platform deliveries: verify the signature, run every
// text event through the conversation engine, then send replies without
// blocking the response. The platform's delivery order per user is
// trusted as the message ordering.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("read_error").Inc()
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !ValidSignature(h.channelSecret, body, r.Header.Get("X-Line-Signature")) {
		metrics.WebhookEventsTotal.WithLabelValues("bad_signature").Inc()
		logging.Warn("Webhook signature verification failed", "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("bad_payload").Inc()
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, event := range payload.Events {
		if event.Type != "message" || event.Message.Type != "text" || event.Source.UserID == "" {
			metrics.WebhookEventsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		replies := h.engine.HandleMessage(event.Source.UserID, event.Message.Text)
		metrics.WebhookEventsTotal.WithLabelValues("handled").Inc()

		// Fire-and-forget: a failed delivery is logged and counted but
		// the state mutations above are not rolled back.
		go h.deliver(event.ReplyToken, replies)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) deliver(replyToken string, messages []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.sender.Reply(ctx, replyToken, messages); err != nil {
		metrics.ReplyFailuresTotal.Inc()
		logging.Error("Failed to deliver reply", "error", err)
	}
}

// Home is the liveness page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Dosing bot is running!"))
}

// healthResponse defines the structure for consistent JSON ordering
type healthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Formulary     map[string]any `json:"formulary"`
	Sessions      map[string]any `json:"sessions"`
	System        map[string]any `json:"system"`
}

// HealthCheck reports formulary and session statistics plus process
// stats, with the status decided by the injected checker.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.checker.HealthCheck()

	formularyData, _ := data["formulary"].(map[string]any)
	sessionData, _ := data["sessions"].(map[string]any)

	response := healthResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Formulary:     formularyData,
		Sessions:      sessionData,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"alloc_mb":   int(m.Alloc / 1024 / 1024),
		},
	}

	h.respondWithJSON(w, httpStatus, response)
}

// respondWithJSON writes a JSON response
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
