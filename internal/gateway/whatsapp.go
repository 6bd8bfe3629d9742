package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/shared/config"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// WhatsAppGateway delivers messages through a WhatsApp Business API
// endpoint.
type WhatsAppGateway struct {
	config config.WhatsAppGatewayConfig
	client *http.Client
	logger *logger.Logger
}

// NewWhatsAppGateway creates a WhatsApp gateway.
func NewWhatsAppGateway(cfg config.WhatsAppGatewayConfig, log *logger.Logger) *WhatsAppGateway {
	return &WhatsAppGateway{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

type whatsAppRequest struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts the message and returns the provider's message ID, which
// later delivery and read receipts reference.
func (g *WhatsAppGateway) Send(ctx context.Context, recipient string, msg dispatch.Message) (string, error) {
	body := whatsAppRequest{To: recipient, Type: "text"}
	body.Text.Body = msg.Body

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal whatsapp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.NewDeliveryError("whatsapp provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewDeliveryError(fmt.Sprintf("whatsapp provider returned status %d", resp.StatusCode), nil)
	}

	var result whatsAppResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		g.logger.Warn("could not decode whatsapp provider response", "error", err)
		return "", nil
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}
