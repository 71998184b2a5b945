package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzureProvider_Generate(t *testing.T) {
	t.Parallel()

	payload := `{"choices":[{"message":{"content":"Positive"}}],"usage":{"total_tokens":3}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	p := NewAzureProvider(server.URL, "secret-key", 5*time.Second)
	result, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, Azure, result.Source)
	assert.Equal(t, "Positive", result.Text)
	// The raw payload passes through verbatim.
	assert.JSONEq(t, payload, string(result.Raw))
}

func TestVertexProvider_Generate(t *testing.T) {
	t.Parallel()

	payload := `{"predictions":[{"content":"Neutral"}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer vertex-key", r.Header.Get("Authorization"))

		var body vertexRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Instances, 1)
		assert.Equal(t, "judge this", body.Instances[0].Content)

		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	p := NewVertexProvider(server.URL, "vertex-key", 5*time.Second)
	result, err := p.Generate(context.Background(), Request{Prompt: "judge this"})
	require.NoError(t, err)

	assert.Equal(t, Vertex, result.Source)
	assert.Equal(t, "Neutral", result.Text)
	assert.JSONEq(t, payload, string(result.Raw))
}

func TestGPT5MiniProvider_Generate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mini-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewGPT5MiniProvider(server.URL, "mini-key", 5*time.Second)
	result, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, GPT5Mini, result.Source)
	assert.Equal(t, "ok", result.Text)
}

// TestGPT5MiniProvider_MissingKeyFailsClosed verifies that an
// unconfigured credential rejects the request before any network call,
// with no placeholder fallback.
func TestGPT5MiniProvider_MissingKeyFailsClosed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := NewGPT5MiniProvider(server.URL, "", 5*time.Second)
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, int64(0), calls.Load(), "no network call must be made without a credential")
}

func TestAzureProvider_MissingKeyFailsClosed(t *testing.T) {
	t.Parallel()

	p := NewAzureProvider("http://example.invalid", "", time.Second)
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrMissingCredential)
}

// TestProviders_DownstreamError verifies non-2xx responses propagate the
// downstream status and message without retrying.
func TestProviders_DownstreamError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer server.Close()

	p := NewAzureProvider(server.URL, "key", 5*time.Second)
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 429")
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, int64(1), calls.Load(), "every call is fire-once")
}
