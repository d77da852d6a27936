package crm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fieldsync/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "crm-key"})
}

func TestListContactsSendsAuthAndPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer crm-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/contacts", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "200", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"records":[{"_id":"c1","phone":"8015550100"}],"total_count":201}`))
	})

	page, err := client.ListContacts(context.Background(), 100, 200)

	require.NoError(t, err)
	assert.Equal(t, 201, page.TotalCount)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "c1", page.Records[0].ID)
}

func TestCreateContactPostsPayloadWithoutBlankFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		assert.NotContains(t, decoded, "email", "blank fields must be omitted on the wire")
		assert.Equal(t, "8015550100", decoded["phone"])

		_, _ = w.Write([]byte(`{"_id":"c9","phone":"8015550100","channel":"API"}`))
	})

	contact, err := client.CreateContact(context.Background(), ContactPayload{
		Phone:   "8015550100",
		Channel: ChannelAPI,
	})

	require.NoError(t, err)
	assert.Equal(t, "c9", contact.ID)
}

func TestUpdateContactScopedToID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/contacts/c1", r.URL.Path)
		_, _ = w.Write([]byte(`{"_id":"c1"}`))
	})

	contact, err := client.UpdateContact(context.Background(), "c1", ContactPayload{FirstName: "Ada"})

	require.NoError(t, err)
	assert.Equal(t, "c1", contact.ID)
}

func TestCreateConflictClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.CreateContact(context.Background(), ContactPayload{Phone: "8015550100"})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateValidationRejectionClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.CreateContact(context.Background(), ContactPayload{})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestServerErrorClassifiedUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListContacts(context.Background(), 10, 0)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
