// Package audit provides session.AuditSink implementations beyond the SQL
// table: a NATS publisher, a structured log sink and a fan-out.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MJE43/pf-casino-engine/internal/session"
)

// Multi appends every entry to all sinks. Every sink is tried; the errors are joined.
type Multi []session.AuditSink

func (m Multi) Append(ctx context.Context, e session.AuditEntry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes audit entries as structured log records.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("component", "audit")}
}

func (l *Log) Append(ctx context.Context, e session.AuditEntry) error {
	attrs := []slog.Attr{
		slog.String("round_id", e.RoundID),
		slog.String("account", e.Account),
		slog.String("event", string(e.Event)),
		slog.String("variant", string(e.Variant)),
		slog.String("commitment", e.Commitment.String()),
	}
	if e.Seed != nil {
		attrs = append(attrs, slog.String("seed", e.Seed.String()))
	}
	if e.Payout != nil {
		attrs = append(attrs, slog.String("payout", e.Payout.String()))
	}
	level := slog.LevelInfo
	if e.Defect != "" {
		attrs = append(attrs, slog.String("defect", e.Defect))
		level = slog.LevelError
	}
	l.logger.LogAttrs(ctx, level, "audit", attrs...)
	return nil
}
