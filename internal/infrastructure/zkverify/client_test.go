package zkverify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkreview-backend/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.VerifierConfig{
		BaseURL:     baseURL,
		BlueprintID: testBlueprint,
		TimeoutSec:  2,
	}, NewSchemaRegistry(DefaultSchemas(testBlueprint)...))
}

func TestClientVerifyAccepted(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()

		var received Proof
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		assert.Equal(t, []string{"header-hash", "null-1"}, received.PublicOutputs)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.Verify(context.Background(), testProof(), testBlueprint)
	require.NoError(t, err)
	assert.Equal(t, "/api/blueprints/purchase-confirmation%2Fv1/verify", gotPath)
}

func TestClientVerifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":false,"error":"constraint system mismatch"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.Verify(context.Background(), testProof(), testBlueprint)
	assert.ErrorIs(t, err, ErrInvalidProof)
	assert.NotErrorIs(t, err, ErrVerifierUnavailable)
}

func TestClientVerifyUnavailable(t *testing.T) {
	t.Run("unexpected status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := newTestClient(srv.URL).Verify(context.Background(), testProof(), testBlueprint)
		assert.ErrorIs(t, err, ErrVerifierUnavailable)
	})

	t.Run("undecodable verdict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		err := newTestClient(srv.URL).Verify(context.Background(), testProof(), testBlueprint)
		assert.ErrorIs(t, err, ErrVerifierUnavailable)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		err := newTestClient(srv.URL).Verify(context.Background(), testProof(), testBlueprint)
		assert.ErrorIs(t, err, ErrVerifierUnavailable)
	})
}
