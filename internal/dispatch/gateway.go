package dispatch

import (
	"context"

	"github.com/rentables/lease-notification-service/internal/domain"
)

// Message is the channel-agnostic payload handed to a gateway. Subject is
// only meaningful for email.
type Message struct {
	Subject string
	Body    string
}

// Gateway sends one message to one recipient over one channel. A non-empty
// provider ID lets delivery-status callbacks be matched back to the log row.
type Gateway interface {
	Send(ctx context.Context, recipient string, msg Message) (providerID string, err error)
}

// Registry maps channels to their configured gateways.
type Registry map[domain.Channel]Gateway
