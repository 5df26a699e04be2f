// Package notify sends customer messages through the WhatsApp Cloud API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/pkg/config"

	"go.uber.org/zap"
)

const maxErrorBody = 2048

type WhatsAppClient struct {
	config     config.WhatsAppConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWhatsAppClient(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText delivers body to the WhatsApp number `to`. It makes one attempt;
// any failure is returned wrapped in common.ErrNotificationFailed.
func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) error {
	if !c.config.Enabled() {
		c.logger.Warn("WhatsApp client not configured, message dropped", zap.String("to", to))
		return fmt.Errorf("%w: whatsapp client not configured", common.ErrNotificationFailed)
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               NormalizeNumber(to),
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("%w: marshal message: %v", common.ErrNotificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", common.ErrNotificationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotificationFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("WhatsApp API rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return fmt.Errorf("%w: whatsapp api returned %d: %s", common.ErrNotificationFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil && len(parsed.Messages) > 0 {
		c.logger.Info("WhatsApp message sent", zap.String("message_id", parsed.Messages[0].ID))
	}

	return nil
}

func (c *WhatsAppClient) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages",
		strings.TrimRight(c.config.APIURL, "/"), c.config.APIVersion, c.config.PhoneNumberID)
}

// NormalizeNumber reduces a WhatsApp id to its digits, stripping the
// formatting it commonly carries ("+", spaces, dashes, the "@c.us" suffix).
func NormalizeNumber(n string) string {
	n = strings.TrimSuffix(strings.TrimSpace(n), "@c.us")
	var b strings.Builder
	for _, r := range n {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
