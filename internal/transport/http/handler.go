// Package httptransport is the thin HTTP layer. It delegates to the sync
// service without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/platform/middleware"
	"fieldsync/internal/source"
	"fieldsync/internal/sync/service"
	"fieldsync/pkg/platform/httputil"
)

// Webhook event types that trigger a sync. Everything else is acknowledged
// and ignored.
const (
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
)

// Syncer is the sync surface the webhook handler needs.
type Syncer interface {
	SyncOne(ctx context.Context, cust source.Customer, opts service.Options) service.Result
}

// Handler serves the webhook boundary.
type Handler struct {
	syncer  Syncer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler creates the webhook handler. metrics may be nil.
func NewHandler(syncer Syncer, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		syncer:  syncer,
		logger:  logger,
		metrics: m,
	}
}

type webhookRequest struct {
	Event    string           `json:"event"`
	Customer *source.Customer `json:"customer"`
}

type webhookResponse struct {
	Handled bool   `json:"handled"`
	Action  string `json:"action,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// HandleSourceWebhook processes a webhook delivery from the field-service
// system. It acknowledges with 200 even for unrecognized event types and
// malformed payloads: a string of hard failures would get the webhook
// disabled upstream. Only unexpected internal faults surface as 5xx, via the
// recovery middleware.
func (h *Handler) HandleSourceWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "malformed webhook payload",
			"error", err.Error(), "request_id", requestID)
		h.metrics.ObserveWebhookEvent("malformed", false)
		httputil.WriteJSON(w, http.StatusOK, webhookResponse{
			Handled: false,
			Message: "malformed payload ignored",
		})
		return
	}

	if req.Event != EventCustomerCreated && req.Event != EventCustomerUpdated {
		h.metrics.ObserveWebhookEvent(req.Event, false)
		httputil.WriteJSON(w, http.StatusOK, webhookResponse{
			Handled: false,
			Message: "event type ignored",
		})
		return
	}

	if req.Customer == nil {
		h.metrics.ObserveWebhookEvent(req.Event, false)
		httputil.WriteJSON(w, http.StatusOK, webhookResponse{
			Handled: false,
			Message: "event missing customer record",
		})
		return
	}

	result := h.syncer.SyncOne(r.Context(), *req.Customer, service.Options{
		IncludeServiceHistory: true,
	})
	h.metrics.ObserveWebhookEvent(req.Event, true)

	httputil.WriteJSON(w, http.StatusOK, webhookResponse{
		Handled: true,
		Action:  string(result.Action),
		Reason:  result.Reason,
		Message: result.Message(),
	})
}
