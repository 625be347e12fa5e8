// Package openai provides an OpenAI-compatible chat-completions client
// implementing the augment.Rewriter interface.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/services/augment"
)

// Config holds the configuration for the OpenAI client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rewrite sends the structured prompt to the chat-completions endpoint
// and returns the rewritten text.
func (c *Client) Rewrite(ctx context.Context, req *augment.Request) (string, error) {
	messages := make([]chatMessage, 0, len(req.History)+2)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: buildSystemMessage(req),
	})
	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserMessage})

	body, err := json.Marshal(chatRequest{
		Model:            c.model,
		Messages:         messages,
		MaxTokens:        c.maxTokens,
		Temperature:      c.temperature,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	})
	if err != nil {
		return "", domainerrors.NewAugmentationFailureError("marshal request", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", domainerrors.NewAugmentationFailureError("create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domainerrors.NewAugmentationFailureError("execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domainerrors.NewAugmentationFailureError(
			fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", domainerrors.NewAugmentationFailureError("decode response", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", domainerrors.NewAugmentationFailureError("empty choices", nil)
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", domainerrors.NewAugmentationFailureError("empty completion", nil)
	}
	return content, nil
}

// buildSystemMessage combines the persona prompt, the stage guidance
// and the draft-response instruction into one system message.
func buildSystemMessage(req *augment.Request) string {
	var sb strings.Builder
	sb.WriteString(req.SystemPrompt)
	if req.FlowGuidance != "" {
		sb.WriteString("\n\n")
		sb.WriteString(req.FlowGuidance)
	}
	sb.WriteString("\n\nRESPOSTA SUGERIDA PELO SISTEMA: ")
	sb.WriteString(req.Draft)
	sb.WriteString("\n\nUse esta resposta como base, mas melhore-a para ser mais natural e personalizada. Mantenha o mesmo conteúdo informativo, mas ajuste o tom e a linguagem.")
	return sb.String()
}
