package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sethvargo/go-retry"

	"github.com/MJE43/pf-casino-engine/internal/session"
)

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes each entry as JSON on "<prefix>.<event>".
type NATS struct {
	pub     Publisher
	prefix  string
	retries uint64
	log     *slog.Logger
}

func NewNATS(pub Publisher, subjectPrefix string, logger *slog.Logger) *NATS {
	if subjectPrefix == "" {
		subjectPrefix = "casino.audit"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATS{pub: pub, prefix: subjectPrefix, retries: 3, log: logger}
}

// Subject returns the subject an event is published on.
func (n *NATS) Subject(event session.AuditEvent) string {
	return n.prefix + "." + string(event)
}

func (n *NATS) Append(ctx context.Context, e session.AuditEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	subject := n.Subject(e.Event)

	b := retry.NewExponential(20 * time.Millisecond)
	b = retry.WithCappedDuration(500*time.Millisecond, b)
	b = retry.WithMaxRetries(n.retries, b)

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := n.pub.Publish(subject, data); err != nil {
			n.log.Warn("audit publish failed", "subject", subject, "round_id", e.RoundID, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Connect dials NATS with reconnect handling.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name("casinod"),
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS error", "subject", subject, "error", err)
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
