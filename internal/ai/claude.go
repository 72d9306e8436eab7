package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 1000
)

type Client interface {
	AnalyzeImage(ctx context.Context, model string, imageData []byte, mimeType, prompt string) (json.RawMessage, error)
	GenerateText(ctx context.Context, model, prompt string, maxTokens int) (string, error)
}

type claudeClient struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

func NewClient(apiKey string) Client {
	return &claudeClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 120 * time.Second},
	}
}

// NewClientWithBaseURL points the client at a different endpoint, used in tests.
func NewClientWithBaseURL(apiKey, baseURL string) Client {
	return &claudeClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 120 * time.Second},
	}
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *claudeClient) AnalyzeImage(ctx context.Context, model string, imageData []byte, mimeType, prompt string) (json.RawMessage, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := messagesRequest{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{Type: "text", Text: prompt},
					{
						Type: "image",
						Source: &imageSource{
							Type:      "base64",
							MediaType: mimeType,
							Data:      base64.StdEncoding.EncodeToString(imageData),
						},
					},
				},
			},
		},
	}

	text, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	// The model wraps its JSON in prose often enough that we cut out the
	// outermost object instead of decoding the whole reply.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		err = errors.New("no JSON object in model response")
		slog.Info(err.Error())
		return nil, err
	}

	raw := json.RawMessage(text[start : end+1])
	if !json.Valid(raw) {
		err = errors.New("model response is not valid JSON")
		slog.Info(err.Error())
		return nil, err
	}

	return raw, nil
}

func (c *claudeClient) GenerateText(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []message{
			{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: prompt}},
			},
		},
	}

	return c.complete(ctx, req)
}

func (c *claudeClient) complete(ctx context.Context, reqBody messagesRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1/messages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("claude returned status %d: %s", resp.StatusCode, readErrMsg(resp.Body))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode claude response: %w", err)
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("empty response from claude")
	}

	return sb.String(), nil
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(data)
}
