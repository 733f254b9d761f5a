// Package backends provides ready-made assistant.Backend implementations.
package backends

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mededlabs/medcore/assistant"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// OpenAICompat talks to any OpenAI-compatible chat-completions endpoint:
// OpenAI itself, OpenRouter, Ollama, vLLM, and most hosted gateways.
type OpenAICompat struct {
	id           string
	baseURL      string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

// OpenAICompatOption configures an OpenAICompat backend.
type OpenAICompatOption func(*OpenAICompat)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OpenAICompatOption {
	return func(b *OpenAICompat) {
		b.httpClient = c
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) OpenAICompatOption {
	return func(b *OpenAICompat) {
		b.apiKey = key
	}
}

// WithSystemPrompt sets the system message prepended to every request.
func WithSystemPrompt(prompt string) OpenAICompatOption {
	return func(b *OpenAICompat) {
		b.systemPrompt = prompt
	}
}

// NewOpenAICompat creates a backend with the given coordinator-facing ID,
// base URL (e.g. "https://api.openai.com/v1"), and model name.
func NewOpenAICompat(id, baseURL, model string, opts ...OpenAICompatOption) *OpenAICompat {
	b := &OpenAICompat{
		id:      id,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the backend identifier.
func (b *OpenAICompat) ID() string {
	return b.id
}

// Available probes the models endpoint with a short deadline. Any HTTP
// answer below 500 counts as available; auth failures surface later as send
// errors with a useful body.
func (b *OpenAICompat) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, b.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode < http.StatusInternalServerError
}

// Send submits a chat-completions request. Images ride along as base64 data
// URLs in the multimodal content format.
func (b *OpenAICompat) Send(ctx context.Context, req assistant.Request) (*assistant.RawResponse, error) {
	body, err := b.buildRequestBody(req)
	if err != nil {
		return nil, assistant.NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, assistant.NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	b.setHeaders(httpReq)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient
		return nil, assistant.NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, assistant.NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	return parseResponse(respBody)
}

func (b *OpenAICompat) setHeaders(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLValue `json:"image_url,omitempty"`
}

type imageURLValue struct {
	URL string `json:"url"`
}

func (b *OpenAICompat) buildRequestBody(req assistant.Request) ([]byte, error) {
	var messages []chatMessage

	if b.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: b.systemPrompt})
	}
	if req.Context != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Context})
	}

	if len(req.Images) == 0 {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	} else {
		parts := make([]contentPart, 0, len(req.Images)+1)
		parts = append(parts, contentPart{Type: "text", Text: req.Prompt})
		for _, img := range req.Images {
			parts = append(parts, contentPart{
				Type: "image_url",
				ImageURL: &imageURLValue{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
				},
			})
		}
		messages = append(messages, chatMessage{Role: "user", Content: parts})
	}

	return json.Marshal(chatRequest{
		Model:    b.model,
		Messages: messages,
	})
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (*assistant.RawResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, assistant.NewFatalError(fmt.Errorf("parse response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, assistant.NewFatalError(fmt.Errorf("no choices in response"))
	}
	return &assistant.RawResponse{Text: resp.Choices[0].Message.Content}, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("backend API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		// Rate limiting is transient
		return assistant.NewTransientError(err)
	case statusCode >= 500:
		// Server errors are transient
		return assistant.NewTransientError(err)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		// Auth errors are fatal
		return assistant.NewFatalError(err)
	case statusCode == http.StatusBadRequest:
		// Bad requests are fatal
		return assistant.NewFatalError(err)
	default:
		// Unknown errors default to fatal
		return assistant.NewFatalError(err)
	}
}
