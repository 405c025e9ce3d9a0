// Package ledger defines the funds collaborator the settlement session talks
// to, plus an in-memory reference implementation.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds rejects a reservation larger than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnavailable marks a transient collaborator failure; the call may be retried.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrUnknownReservation is returned for an id the ledger never issued.
	ErrUnknownReservation = errors.New("unknown reservation")
	// ErrReservationClosed means the reservation was already settled or released
	// with a different instruction.
	ErrReservationClosed = errors.New("reservation already closed")
	// ErrInvalidAmount rejects negative or zero reservation amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// ReservationID identifies held funds.
type ReservationID string

// Ledger reserves a stake, then either settles it with a payout or releases it.
// Settle and Release must be idempotent for the same instruction.
type Ledger interface {
	Reserve(ctx context.Context, account string, amount decimal.Decimal) (ReservationID, error)
	Settle(ctx context.Context, id ReservationID, payout decimal.Decimal) error
	Release(ctx context.Context, id ReservationID) error
}
