package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	noTextMarker   = "NO_TEXT_FOUND"
	defaultTimeout = 45 * time.Second

	ocrPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
		"- No formatting\n" +
		"- No XML/HTML tags\n" +
		"- No markdown\n" +
		"- No explanations\n" +
		"- Preserve line breaks accurately from the visual layout.\n" +
		"If no text found, return '" + noTextMarker + "'"
)

// ErrNoText is returned when the model reports that the image holds no text.
var ErrNoText = errors.New("no text detected in image")

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// BaseURL overrides the OpenRouter API root.
	BaseURL string
	Timeout time.Duration
}

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

// Client talks to an OpenRouter vision model. It never retries: a failed
// call is reported to the caller as is.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// providerPreferences pins routing to the configured providers, if any.
func (c *Client) providerPreferences() *ProviderPreferences {
	if len(c.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          c.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// QueryVision sends a PNG to the vision model and returns the extracted text.
func (c *Client) QueryVision(ctx context.Context, pngData []byte) (string, error) {
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)

	request := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: ocrPrompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    c.providerPreferences(),
	}

	response, err := c.chat(ctx, request)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}

	text := cleanExtractedText(response.Choices[0].Message.Content)
	if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == noTextMarker {
		return "", ErrNoText
	}
	return text, nil
}

// Ping validates the API key against the key info endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/auth/key", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", "https://github.com/circle-to-search/circle-to-search")
	req.Header.Set("X-Title", "Circle to Search")
}

func (c *Client) chat(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&response)

	if decodeErr == nil && response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &response, nil
}

func cleanExtractedText(text string) string {
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "</image>"))
}
