// Package enhance forwards assembled prompts to an OpenAI-compatible
// chat-completions API for refinement, gated by the quota subsystem.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/promptwizard-app/promptwizard/internal/config"
)

// systemPrompt instructs the model to improve the prompt, not answer it.
const systemPrompt = "You refine prompt instructions for generative AI models. " +
	"Improve clarity, add structure, keep it concise but complete, " +
	"and include explicit output formatting when helpful. " +
	"Do NOT generate the final content; return only the improved prompt."

// Client talks to an OpenAI-compatible chat-completions endpoint. Works
// with OpenAI itself and any API mirroring its request shape.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	org        string
	httpClient *http.Client
}

// NewClient builds a Client from the OpenAI configuration. The request
// timeout lives on the embedded http.Client.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		org:        cfg.Org,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type apiResponse struct {
	Choices []struct {
		Message apiMessage `json:"message"`
	} `json:"choices"`
}

// Enhance sends the prompt for refinement and returns the improved text.
func (c *Client) Enhance(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model: c.model,
		Messages: []apiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
		MaxTokens:   600,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling enhancement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building enhancement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.org != "" {
		req.Header.Set("OpenAI-Organization", c.org)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling enhancement api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("enhancement api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding enhancement response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("enhancement api returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
