package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	"github.com/noah-isme/yoga-escrow-api/pkg/jobs"
)

func TestClientSubmitReturnsTxHash(t *testing.T) {
	var got submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/escrow/transactions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"txHash":"0xabc"}`))
	}))
	defer server.Close()

	idx := uint8(1)
	client := NewClient(Config{BaseURL: server.URL + "/", APIKey: "key-1"})
	hash, err := client.Submit(context.Background(), models.EscrowAction{Type: models.ActionAccept, EscrowID: 7, TimeIndex: &idx, Handle: "@anna"})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	assert.Equal(t, "acceptEscrow", got.Method)
	assert.Equal(t, uint64(7), got.Action.EscrowID)
}

func TestClientSubmitClassifiesFailures(t *testing.T) {
	status := http.StatusUnprocessableEntity
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"execution reverted"}`))
	}))
	defer server.Close()
	client := NewClient(Config{BaseURL: server.URL})
	action := models.EscrowAction{Type: models.ActionRelease, EscrowID: 3}

	_, err := client.Submit(context.Background(), action)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jobs.ErrPermanent))
	assert.Contains(t, err.Error(), "execution reverted")

	status = http.StatusBadGateway
	_, err = client.Submit(context.Background(), action)
	require.Error(t, err)
	assert.False(t, errors.Is(err, jobs.ErrPermanent))
}

func TestClientSubmitRejectsUnknownAction(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Submit(context.Background(), models.EscrowAction{Type: "refund"})
	assert.True(t, errors.Is(err, jobs.ErrPermanent))
}
