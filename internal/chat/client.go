package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"martxmart/internal/util"

	"go.uber.org/zap"
)

const supportSystemPrompt = "You are a helpful support assistant for the martXmart marketplace. " +
	"Answer questions about orders, shipping, returns and products. " +
	"If you do not know the answer, say so and suggest opening a support ticket."

// Client is a chat-completions client for the conversational support
// endpoint. It talks the OpenAI-compatible wire format directly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewClient creates a new chat completions client
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		logger:     util.GetLogger(),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the user's question with the support system prompt and
// returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, userMessage string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("chat API key not configured")
	}

	reqBody := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: supportSystemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: 0.7,
		MaxTokens:   512,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("Chat provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return "", fmt.Errorf("chat provider returned status %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat provider returned no choices")
	}

	c.logger.Info("Chat completion",
		zap.String("model", c.model),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)))

	return completion.Choices[0].Message.Content, nil
}
