package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

// RoundStore persists rounds keyed by id. Implementations must return
// ErrRoundNotFound for unknown ids and ErrRoundExists on duplicate Create.
type RoundStore interface {
	Create(ctx context.Context, r *Round) error
	Update(ctx context.Context, r *Round) error
	Get(ctx context.Context, id string) (*Round, error)
	ListByAccount(ctx context.Context, account string) ([]*Round, error)
}

// AuditEvent names an audit record.
type AuditEvent string

const (
	AuditCommitted AuditEvent = "committed"
	AuditClosed    AuditEvent = "closed"
	AuditAborted   AuditEvent = "aborted"
	AuditDefect    AuditEvent = "defect"
	AuditRefunded  AuditEvent = "refunded"
)

// AuditEntry is one append-only audit record. Seed is only set for events
// after reveal.
type AuditEntry struct {
	RoundID    string            `json:"round_id"`
	Account    string            `json:"account"`
	Event      AuditEvent        `json:"event"`
	Commitment engine.Commitment `json:"commitment"`
	Seed       *engine.Seed      `json:"seed,omitempty"`
	Variant    games.Variant     `json:"variant"`
	Params     map[string]any    `json:"params,omitempty"`
	Wagers     []bets.Wager      `json:"wagers,omitempty"`
	Outcome    *games.Outcome    `json:"outcome,omitempty"`
	Payout     *decimal.Decimal  `json:"payout,omitempty"`
	Defect     string            `json:"defect,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// AuditSink receives audit records.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// AuditFunc adapts a function to AuditSink.
type AuditFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditFunc) Append(ctx context.Context, entry AuditEntry) error { return f(ctx, entry) }

// DiscardAudit drops every record.
var DiscardAudit AuditSink = AuditFunc(func(context.Context, AuditEntry) error { return nil })

// MemoryStore is a map-backed RoundStore.
type MemoryStore struct {
	mu     sync.RWMutex
	rounds map[string]*Round
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rounds: make(map[string]*Round)}
}

func (s *MemoryStore) Create(ctx context.Context, r *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRoundExists, r.ID)
	}
	s.rounds[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, r *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[r.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, r.ID)
	}
	s.rounds[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	return r.Clone(), nil
}

// ListByAccount returns the account's rounds, newest first.
func (s *MemoryStore) ListByAccount(ctx context.Context, account string) ([]*Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Round
	for _, r := range s.rounds {
		if r.Account == account {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
