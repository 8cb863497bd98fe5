package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/collabwrite/collabwrite/internal/config"
)

var (
	ErrNotConfigured = errors.New("assist service not configured")
	ErrEmptyResponse = errors.New("assist upstream returned no candidates")
)

// Client calls the generative-language REST API (generateContent). The
// service is stateless from the caller's perspective; failures never touch
// collaboration state.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewClient(cfg config.AssistConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends one prompt and returns the first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("assist upstream returned %d: %s", resp.StatusCode, string(b))
	}
	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func wrap(instruction, text string) string {
	return fmt.Sprintf("%s\n\n\"\"\"\n%s\n\"\"\"\n", instruction, text)
}

func (c *Client) GrammarCheck(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Check the grammar and style of the following text and provide corrections and suggestions:", text))
}

func (c *Client) Enhance(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Enhance the following text for clarity, tone, and readability. Provide the improved version:", text))
}

func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Summarize the following text concisely:", text))
}

func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Given the following text, provide a context-aware auto-completion suggestion for the next few words or a sentence:", text))
}

func (c *Client) Suggestions(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Based on the following text, provide creative content recommendations or ideas to expand on the topic:", text))
}

func (c *Client) RealtimeSuggestion(ctx context.Context, text string) (string, error) {
	return c.GenerateContent(ctx, wrap("Provide a concise, context-aware writing suggestion or auto-completion for the following text. Focus on improving flow or suggesting the next logical phrase:", text))
}
