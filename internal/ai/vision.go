package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
)

// VisionClient is the multimodal reasoning capability:
// infer(prompt, image) -> text.
type VisionClient interface {
	Infer(ctx context.Context, prompt string, image []byte) (string, error)
}

// ChatVisionClient calls an OpenAI-compatible chat-completions endpoint with
// the prompt and the image embedded as a data URI.
type ChatVisionClient struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// NewChatVisionClient creates a vision client from configuration.
func NewChatVisionClient(cfg config.LLMConfig, apiKey string) *ChatVisionClient {
	return &ChatVisionClient{
		url:    cfg.URL,
		model:  cfg.Model,
		apiKey: apiKey,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Infer sends the prompt and image to the reasoning service and returns the
// raw response text. Transport failures surface as a service-unreachable
// condition.
func (c *ChatVisionClient) Infer(ctx context.Context, prompt string, image []byte) (string, error) {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI}},
				},
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.ServiceUnreachable("llm", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.ServiceUnreachable("llm", fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ServiceUnreachable("llm", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.LLMMalformed(err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.LLMMalformed(fmt.Errorf("response has no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}
