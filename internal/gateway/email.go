package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/shared/config"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// EmailGateway delivers messages over SMTP.
type EmailGateway struct {
	config config.SMTPConfig
	logger *logger.Logger
}

// NewEmailGateway creates an SMTP-backed email gateway.
func NewEmailGateway(cfg config.SMTPConfig, log *logger.Logger) *EmailGateway {
	return &EmailGateway{config: cfg, logger: log}
}

// Send delivers one email. The connection is dialed with the caller's
// context and the context deadline is applied to every read and write,
// so an unresponsive server cannot hold the call past the deadline.
// SMTP has no message ID to report, so the provider ID is always empty.
func (g *EmailGateway) Send(ctx context.Context, recipient string, msg dispatch.Message) (string, error) {
	from := g.config.FromEmail
	if g.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", g.config.FromName, g.config.FromEmail)
	}

	body := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		from, recipient, msg.Subject, msg.Body)

	addr := fmt.Sprintf("%s:%d", g.config.Host, g.config.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", errors.NewDeliveryError("smtp connect failed", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	// Port 465 expects implicit TLS from the first byte.
	if g.config.Port == 465 {
		conn = tls.Client(conn, &tls.Config{ServerName: g.config.Host})
	}

	client, err := smtp.NewClient(conn, g.config.Host)
	if err != nil {
		return "", errors.NewDeliveryError("smtp greeting failed", err)
	}
	defer client.Close()

	if g.config.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: g.config.Host}); err != nil {
				return "", errors.NewDeliveryError("smtp starttls failed", err)
			}
		}
	}

	if g.config.Username != "" {
		auth := smtp.PlainAuth("", g.config.Username, g.config.Password, g.config.Host)
		if err := client.Auth(auth); err != nil {
			return "", errors.NewDeliveryError("smtp authentication failed", err)
		}
	}

	if err := client.Mail(g.config.FromEmail); err != nil {
		return "", errors.NewDeliveryError("smtp sender rejected", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return "", errors.NewDeliveryError("smtp recipient rejected", err)
	}

	w, err := client.Data()
	if err != nil {
		return "", errors.NewDeliveryError("smtp data command failed", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return "", errors.NewDeliveryError("smtp message write failed", err)
	}
	if err := w.Close(); err != nil {
		return "", errors.NewDeliveryError("smtp message not accepted", err)
	}

	client.Quit()
	g.logger.Debug("email sent", "recipient", recipient)
	return "", nil
}
