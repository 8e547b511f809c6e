package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"researchpilot/config"
)

// Fehlerklassen des LLM-Gateways. Shape-Fehler der externen Antwort werden
// genauso als ErrGateway gemeldet wie Netzwerk- oder Quota-Fehler.
var (
	ErrGateway        = errors.New("llm gateway error")
	ErrGatewayTimeout = errors.New("llm gateway timeout")
)

// CompleteOptions steuert einen einzelnen Completion-Aufruf.
type CompleteOptions struct {
	Temperature *float64
}

// TextCompleter ist das Gateway-Primitiv: ein Prompt rein, reiner Text raus.
// Alle Prompt-Templates des Assistant laufen über dieses eine Interface.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// GeminiGateway spricht den generateContent-Endpunkt der
// Generative-Language-API an.
type GeminiGateway struct {
	Config     *config.Config
	Logger     *zap.Logger
	httpClient *http.Client
}

// NewGeminiGateway erstellt ein neues Gateway.
func NewGeminiGateway(cfg *config.Config, logger *zap.Logger) *GeminiGateway {
	return &GeminiGateway{
		Config: cfg,
		Logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
		},
	}
}

// Request-/Response-Strukturen der generateContent-API. Die Antwort wird
// defensiv in typisierte Structs geparst statt Index-Zugriffe auf rohes JSON.
type generateContentRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sendet einen Prompt und extrahiert den Text des ersten Kandidaten.
// Eine Antwort ganz ohne Kandidaten ist kein Fehler, sondern ein leerer String.
// Kein Retry, kein Backoff, kein Streaming.
func (g *GeminiGateway) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	reqBody := generateContentRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if opts.Temperature != nil {
		reqBody.GenerationConfig = &generationConfig{Temperature: *opts.Temperature}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrGateway, err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.Config.GeminiTimeoutSeconds)*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.Config.GeminiBaseURL, g.Config.GeminiModel, g.Config.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "unexpected response"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		g.Logger.Error("Gemini-Aufruf fehlgeschlagen",
			zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrGateway, resp.StatusCode, msg)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		g.Logger.Warn("Gemini-Antwort ohne Kandidaten")
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
