package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"scout_crm_backend/internal/config"
)

// AIService is a thin client for an OpenAI-compatible chat completions
// endpoint. Responses come back as raw text; callers own the parsing.
type AIService struct {
	cfg    config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type aiMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type aiContentPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *aiImageURL `json:"image_url,omitempty"`
}

type aiImageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string      `json:"model"`
	Messages    []aiMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate runs one completion. When imageB64 is non-empty the user turn
// is sent as a multimodal content array with the image inlined as a data
// URL, which is how screenshot extraction works.
func (s *AIService) Generate(ctx context.Context, system, prompt, imageB64 string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("ai api key is not configured")
	}

	var userContent interface{} = prompt
	if imageB64 != "" {
		userContent = []aiContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &aiImageURL{URL: "data:image/png;base64," + imageB64}},
		}
	}

	reqBody := chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []aiMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.2,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai request returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode ai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("ai error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
