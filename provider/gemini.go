package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orbitsmeet/livetl"
)

const (
	// DefaultGeminiBaseURL is the Generative Language API root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	geminiTimeout = 30 * time.Second
)

// GeminiProvider implements AIProvider against the Gemini generateContent
// REST endpoint.
type GeminiProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string       // Fallback model (default: livetl.DefaultModel)
	Temperature float64      // Default: 0.3
	BaseURL     string       // Override for proxies and tests
	HTTPClient  *http.Client // Default: 30s timeout client
}

// geminiRequest is the request body for Gemini API
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

// geminiResponse is the response from Gemini API
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = livetl.DefaultModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiTimeout}
	}

	return &GeminiProvider{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		httpClient:  client,
	}
}

// Generate sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenConfig{Temperature: p.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		retryable := !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		return "", &livetl.ProviderError{
			Message:   "Gemini request failed",
			Cause:     err,
			Retryable: retryable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &livetl.ProviderError{
			Message:   "reading Gemini response",
			Cause:     err,
			Retryable: true,
		}
	}

	var apiResp geminiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && apiResp.Error != nil {
			msg = apiResp.Error.Message
		}
		return "", &livetl.ProviderError{
			Message:    fmt.Sprintf("Gemini API returned status %d", resp.StatusCode),
			Cause:      errors.New(msg),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	if decodeErr != nil {
		return "", &livetl.ProviderError{
			Message:   "invalid response format from Gemini",
			Cause:     decodeErr,
			Retryable: false,
		}
	}

	if len(apiResp.Candidates) == 0 {
		return "", &livetl.ProviderError{
			Message:   "no candidates in Gemini response",
			Retryable: true,
		}
	}

	var b strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// Model returns the fallback model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Verify GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)
