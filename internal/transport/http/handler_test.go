package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/source"
	"fieldsync/internal/sync/service"
)

type fakeSyncer struct {
	result service.Result
	calls  int
	last   source.Customer
	opts   service.Options
}

func (f *fakeSyncer) SyncOne(_ context.Context, cust source.Customer, opts service.Options) service.Result {
	f.calls++
	f.last = cust
	f.opts = opts
	return f.result
}

func newTestHandler(result service.Result) (*Handler, *fakeSyncer) {
	syncer := &fakeSyncer{result: result}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(syncer, logger, nil), syncer
}

func postWebhook(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, webhookResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/source", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSourceWebhook(rec, req)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestCustomerUpdatedEventSynced(t *testing.T) {
	h, syncer := newTestHandler(service.Result{Action: service.ActionUpdated})

	rec, resp := postWebhook(t, h, `{
		"event": "customer.updated",
		"customer": {"id": "cust-1", "mobile_number": "8015550100"}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Handled)
	assert.Equal(t, "updated", resp.Action)
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, "cust-1", syncer.last.ID)
	assert.True(t, syncer.opts.IncludeServiceHistory)
	assert.False(t, syncer.opts.IsInitialSync)
}

func TestMalformedPayloadAcknowledged(t *testing.T) {
	h, syncer := newTestHandler(service.Result{})

	rec, resp := postWebhook(t, h, `{not json`)

	// Hard failures would get the webhook disabled upstream, so malformed
	// payloads are acknowledged with 200.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Handled)
	assert.Zero(t, syncer.calls)
}

func TestUnrecognizedEventAcknowledged(t *testing.T) {
	h, syncer := newTestHandler(service.Result{})

	rec, resp := postWebhook(t, h, `{"event": "invoice.paid"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Handled)
	assert.Zero(t, syncer.calls)
}

func TestEventWithoutCustomerAcknowledged(t *testing.T) {
	h, syncer := newTestHandler(service.Result{})

	rec, resp := postWebhook(t, h, `{"event": "customer.created"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Handled)
	assert.Zero(t, syncer.calls)
}

func TestSyncErrorStillAcknowledged(t *testing.T) {
	h, _ := newTestHandler(service.Result{Action: service.ActionError, Reason: "lookup_failed"})

	rec, resp := postWebhook(t, h, `{
		"event": "customer.created",
		"customer": {"id": "cust-1"}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Handled)
	assert.Equal(t, "error", resp.Action)
}
