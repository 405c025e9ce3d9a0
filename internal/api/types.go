package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/replay"
	"github.com/MJE43/pf-casino-engine/internal/scan"
	"github.com/MJE43/pf-casino-engine/internal/session"
	"github.com/MJE43/pf-casino-engine/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types. Session failures use the session kind as their type.
const (
	ErrTypeValidation   = "validation_error"
	ErrTypeInvalidBody  = "invalid_body"
	ErrTypeGameNotFound = "game_not_found"
	ErrTypeInvalidRange = "invalid_range"
	ErrTypeNotFound     = "not_found"
	ErrTypeTimeout      = "timeout"
	ErrTypeInternal     = "internal_error"
	ErrTypeUnavailable  = "service_unavailable"
)

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

type StartRoundRequest struct {
	Account string         `json:"account" validate:"required,max=128"`
	Variant games.Variant  `json:"variant" validate:"required"`
	Params  map[string]any `json:"params,omitempty"`
}

type PlaceWagersRequest struct {
	Wagers []bets.WagerSpec `json:"wagers" validate:"required,min=1,dive"`
}

type RoundResponse struct {
	Round         *session.Round `json:"round"`
	EngineVersion string         `json:"engine_version"`
}

type RoundsResponse struct {
	Rounds        []*session.Round `json:"rounds"`
	EngineVersion string           `json:"engine_version"`
}

type RevealResponse struct {
	*session.Revelation
	EngineVersion string `json:"engine_version"`
}

// VerifyRequest replays a revealed round offline. Payout is optional; when
// present the response says whether it matches.
type VerifyRequest struct {
	Seed       engine.Seed       `json:"seed"`
	Commitment engine.Commitment `json:"commitment"`
	Variant    games.Variant     `json:"variant" validate:"required"`
	Params     map[string]any    `json:"params,omitempty"`
	Wagers     []bets.WagerSpec  `json:"wagers" validate:"required,min=1,dive"`
	Payout     *decimal.Decimal  `json:"payout,omitempty"`
}

type VerifyResponse struct {
	Result        replay.Result `json:"result"`
	Matches       *bool         `json:"matches,omitempty"`
	EngineVersion string        `json:"engine_version"`
}

// SimulateResponse is a scan result, plus the stored run id when runs are persisted.
type SimulateResponse struct {
	*scan.Result
	RunID string `json:"run_id,omitempty"`
}

type RunResponse struct {
	Run           *store.Run  `json:"run"`
	Hits          []store.Hit `json:"hits"`
	EngineVersion string      `json:"engine_version"`
}

// GamesResponse represents the games metadata response
type GamesResponse struct {
	Games         []games.GameSpec `json:"games"`
	EngineVersion string           `json:"engine_version"`
}
