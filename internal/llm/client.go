package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/httpclient"
	"github.com/chainboard/chainboard/internal/rate"
)

const rateLimitKey = "llm"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
	apiKey  string
	model   string
}

func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL, apiKey, model string) *Client {
	httpClient := &http.Client{Timeout: 90 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 1, "llm", func(status int, body []byte) error {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("llm api returned %d: %s", status, msg)
	})
	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// Complete sends a system+user prompt pair and returns the assistant reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := completionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp completionResponse
	if err := c.exec.DoJSON(ctx, req, rateLimitKey, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	c.logger.Debug("llm.completion_ok",
		zap.String("model", c.model),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
