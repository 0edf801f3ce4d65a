package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAndParseSetsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "minewatch-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("minewatch-test"))
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"order": {"asc"}},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "dataset not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "dataset not found")
}

func TestClient_PostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]float64{"lat": in["lat"] * 2})
	}))
	defer srv.Close()

	var out map[string]float64
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]float64{"lat": 1.5},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out["lat"])
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: http.StatusBadGateway}).Retryable())
	assert.True(t, (&StatusError{Code: http.StatusTooManyRequests}).Retryable())
	assert.False(t, (&StatusError{Code: http.StatusNotFound}).Retryable())
}
