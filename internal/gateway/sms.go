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

// SMSGateway delivers messages through an HTTP SMS provider.
type SMSGateway struct {
	config config.SMSGatewayConfig
	client *http.Client
	logger *logger.Logger
}

// NewSMSGateway creates an SMS gateway. The overall call deadline comes
// from the dispatcher's context; the client timeout is a backstop.
func NewSMSGateway(cfg config.SMSGatewayConfig, log *logger.Logger) *SMSGateway {
	return &SMSGateway{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

type providerResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send posts the message to the provider and returns its message ID.
func (g *SMSGateway) Send(ctx context.Context, recipient string, msg dispatch.Message) (string, error) {
	payload, err := json.Marshal(smsRequest{
		To:      recipient,
		From:    g.config.Sender,
		Message: msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.NewDeliveryError("sms provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewDeliveryError(fmt.Sprintf("sms provider returned status %d", resp.StatusCode), nil)
	}

	var result providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Provider accepted the message; the ID is just unavailable.
		g.logger.Warn("could not decode sms provider response", "error", err)
		return "", nil
	}
	return result.MessageID, nil
}
