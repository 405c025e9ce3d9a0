package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

// Kind classifies a session failure for callers.
type Kind string

const (
	// KindInvalidInput is rejected before commitment; fix the input and retry.
	KindInvalidInput Kind = "invalid_input"
	// KindInsufficientFunds is rejected at lock time.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindIntegrity aborts the round; it signals tampering or a defect.
	KindIntegrity Kind = "integrity"
	// KindCollaborator leaves the round in its last persisted state; retry the call.
	KindCollaborator Kind = "collaborator"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrIntegrity         = &Error{Kind: KindIntegrity}
	ErrCollaborator      = &Error{Kind: KindCollaborator}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
)

// ErrRoundNotFound is returned by RoundStore implementations.
var ErrRoundNotFound = errors.New("round not found")

// ErrRoundExists is returned by RoundStore.Create for a duplicate id.
var ErrRoundExists = errors.New("round already exists")

// Error is the single error type returned by Manager.
type Error struct {
	Kind    Kind
	Op      string
	RoundID string
	// Field names the rejected input for KindInvalidInput.
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.RoundID != "" {
		fmt.Fprintf(&b, "round %s: ", e.RoundID)
	}
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.RoundID == "" && t.Field == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a session error.
func KindOf(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return ""
}

func newError(kind Kind, op, roundID string, err error) *Error {
	return &Error{Kind: kind, Op: op, RoundID: roundID, Field: fieldOf(err), Err: err}
}

// fieldOf extracts the rejected field from wager and game parameter errors.
func fieldOf(err error) string {
	var werr *bets.InvalidWagerError
	if errors.As(err, &werr) {
		return fmt.Sprintf("wagers[%d].%s", werr.Index, werr.Field)
	}
	var perr *games.ParamError
	if errors.As(err, &perr) {
		return "params." + perr.Field
	}
	if errors.Is(err, games.ErrUnknownVariant) {
		return "variant"
	}
	if errors.Is(err, bets.ErrNoWagers) {
		return "wagers"
	}
	return ""
}
