package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"researchpilot/config"
)

func gatewayConfig(baseURL string) *config.Config {
	return &config.Config{
		GeminiBaseURL:        baseURL,
		GeminiModel:          "gemini-2.5-flash",
		GeminiAPIKey:         "test-key",
		GeminiTimeoutSeconds: 5,
	}
}

func TestCompleteExtractsFirstCandidate(t *testing.T) {
	var gotBody generateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"a structured summary"}]}}]}`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	text, err := g.Complete(context.Background(), "summarize this", CompleteOptions{})

	require.NoError(t, err)
	assert.Equal(t, "a structured summary", text)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "summarize this", gotBody.Contents[0].Parts[0].Text)
	assert.Nil(t, gotBody.GenerationConfig)
}

func TestCompleteSendsTemperature(t *testing.T) {
	var gotBody generateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	temp := 0.2
	_, err := g.Complete(context.Background(), "p", CompleteOptions{Temperature: &temp})

	require.NoError(t, err)
	require.NotNil(t, gotBody.GenerationConfig)
	assert.InDelta(t, 0.2, gotBody.GenerationConfig.Temperature, 1e-9)
}

func TestCompleteNoCandidatesIsEmptyString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	text, err := g.Complete(context.Background(), "p", CompleteOptions{})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestCompleteEmptyPartsIsEmptyString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]}}]}`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	text, err := g.Complete(context.Background(), "p", CompleteOptions{})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestCompleteMalformedBodyIsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	_, err := g.Complete(context.Background(), "p", CompleteOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCompleteUpstreamErrorIsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	g := NewGeminiGateway(gatewayConfig(server.URL), zap.NewNop())
	_, err := g.Complete(context.Background(), "p", CompleteOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "quota exceeded")
}
