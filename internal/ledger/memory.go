package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type reservationState int

const (
	reservationHeld reservationState = iota
	reservationSettled
	reservationReleased
)

type reservation struct {
	account string
	amount  decimal.Decimal
	payout  decimal.Decimal
	state   reservationState
}

// Memory is a process-local ledger. Reserve moves the stake out of the
// available balance; Settle credits the payout; Release returns the stake.
type Memory struct {
	mu           sync.Mutex
	balances     map[string]decimal.Decimal
	reservations map[ReservationID]*reservation
}

// NewMemory returns a ledger seeded with opening balances.
func NewMemory(opening map[string]decimal.Decimal) *Memory {
	m := &Memory{
		balances:     make(map[string]decimal.Decimal, len(opening)),
		reservations: make(map[ReservationID]*reservation),
	}
	for account, amount := range opening {
		m.balances[account] = amount
	}
	return m
}

// Deposit credits account.
func (m *Memory) Deposit(account string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = m.balances[account].Add(amount)
}

// Balance is the available balance, excluding held reservations.
func (m *Memory) Balance(account string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account]
}

// Held sums the open reservations of account.
func (m *Memory) Held(account string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, r := range m.reservations {
		if r.account == account && r.state == reservationHeld {
			total = total.Add(r.amount)
		}
	}
	return total
}

func (m *Memory) Reserve(ctx context.Context, account string, amount decimal.Decimal) (ReservationID, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.balances[account]
	if balance.LessThan(amount) {
		return "", fmt.Errorf("%w: account %s has %s, needs %s", ErrInsufficientFunds, account, balance, amount)
	}

	id := ReservationID(uuid.NewString())
	m.balances[account] = balance.Sub(amount)
	m.reservations[id] = &reservation{account: account, amount: amount, state: reservationHeld}
	return id, nil
}

func (m *Memory) Settle(ctx context.Context, id ReservationID, payout decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if payout.IsNegative() {
		return fmt.Errorf("%w: payout %s", ErrInvalidAmount, payout)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReservation, id)
	}
	switch r.state {
	case reservationSettled:
		if r.payout.Equal(payout) {
			return nil
		}
		return fmt.Errorf("%w: %s settled with %s", ErrReservationClosed, id, r.payout)
	case reservationReleased:
		return fmt.Errorf("%w: %s was released", ErrReservationClosed, id)
	}

	r.state = reservationSettled
	r.payout = payout
	m.balances[r.account] = m.balances[r.account].Add(payout)
	return nil
}

func (m *Memory) Release(ctx context.Context, id ReservationID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReservation, id)
	}
	switch r.state {
	case reservationReleased:
		return nil
	case reservationSettled:
		return fmt.Errorf("%w: %s was settled", ErrReservationClosed, id)
	}

	r.state = reservationReleased
	m.balances[r.account] = m.balances[r.account].Add(r.amount)
	return nil
}
