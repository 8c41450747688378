package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	apiTimeout    = 30 * time.Second
)

// Client клиент Telegram Bot API, умеет только отправлять текст
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient создаёт клиент; пустой apiURL означает официальный api.telegram.org
func NewClient(apiURL, token string, log *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL: strings.TrimRight(apiURL, "/") + "/bot" + token,
		log:     log,
	}
}

// APIResponse общая часть ответов Bot API
type APIResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// SendMessageRequest запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ParseMode        string `json:"parse_mode,omitempty"` // "HTML", "Markdown", "MarkdownV2"
	MessageThreadID  *int64 `json:"message_thread_id,omitempty"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

// SendMessageResult результат отправки сообщения
type SendMessageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64 `json:"date"`
}

// SendMessageResponse ответ от Telegram API
type SendMessageResponse struct {
	APIResponse
	Result SendMessageResult `json:"result"`
}

// SendText отправляет текстовое сообщение в чат
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// ReplyText отправляет текст ответом на сообщение replyTo
func (c *Client) ReplyText(ctx context.Context, chatID, replyTo int64, text string) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: replyTo,
	})
	return err
}

// SendMessageWithRequest выполняет sendMessage и возвращает ID отправленного сообщения
func (c *Client) SendMessageWithRequest(ctx context.Context, req SendMessageRequest) (int64, error) {
	var apiResp SendMessageResponse
	if err := c.call(ctx, "sendMessage", req, &apiResp); err != nil {
		c.log.Error("failed to send message",
			"error", err,
			"chat_id", req.ChatID,
		)
		return 0, err
	}

	if !apiResp.OK {
		c.log.Error("telegram API returned error",
			"error_code", apiResp.ErrorCode,
			"description", apiResp.Description,
			"chat_id", req.ChatID,
		)
		return 0, fmt.Errorf("telegram API error: %s (code: %d)", apiResp.Description, apiResp.ErrorCode)
	}

	c.log.Debug("message sent successfully",
		"chat_id", req.ChatID,
		"message_id", apiResp.Result.MessageID,
	)

	return apiResp.Result.MessageID, nil
}

// GetMe проверяет токен бота
func (c *Client) GetMe(ctx context.Context) error {
	var apiResp APIResponse
	if err := c.call(ctx, "getMe", nil, &apiResp); err != nil {
		return err
	}
	if !apiResp.OK {
		return fmt.Errorf("getMe failed: %s (code: %d)", apiResp.Description, apiResp.ErrorCode)
	}

	c.log.Info("bot info retrieved successfully")
	return nil
}

// call POST-запрос к методу Bot API с JSON-телом; ответ декодируется в out
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to telegram: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body (status %d): %w", resp.StatusCode, err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	return nil
}
