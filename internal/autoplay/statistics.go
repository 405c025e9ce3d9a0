package autoplay

import "github.com/shopspring/decimal"

// Statistics tracks one autoplay run.
type Statistics struct {
	Bets     int             `json:"bets"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	Wagered  decimal.Decimal `json:"wagered"`
	Profit   decimal.Decimal `json:"profit"`
	Balance  decimal.Decimal `json:"balance"`
	StartBal decimal.Decimal `json:"start_balance"`

	WinStreak  int `json:"win_streak"`
	LoseStreak int `json:"lose_streak"`
	// Positive = win streak, negative = lose streak.
	CurrentStreak int `json:"current_streak"`

	HighestStreak int             `json:"highest_streak"`
	LowestStreak  int             `json:"lowest_streak"`
	HighestBet    decimal.Decimal `json:"highest_bet"`
	HighestProfit decimal.Decimal `json:"highest_profit"`
	LowestProfit  decimal.Decimal `json:"lowest_profit"`

	LastStake  decimal.Decimal `json:"last_stake"`
	LastPayout decimal.Decimal `json:"last_payout"`
}

func NewStatistics(startBalance decimal.Decimal) *Statistics {
	return &Statistics{
		Balance:  startBalance,
		StartBal: startBalance,
	}
}

// Record folds one settled round into the totals.
func (s *Statistics) Record(stake, payout decimal.Decimal, win bool) {
	s.Bets++

	profit := payout.Sub(stake)
	s.Profit = s.Profit.Add(profit)
	s.Wagered = s.Wagered.Add(stake)
	s.Balance = s.Balance.Add(profit)
	s.LastStake = stake
	s.LastPayout = payout

	if win {
		s.Wins++
		s.WinStreak++
		s.LoseStreak = 0
		s.CurrentStreak = s.WinStreak
	} else {
		s.Losses++
		s.LoseStreak++
		s.WinStreak = 0
		s.CurrentStreak = -s.LoseStreak
	}

	if stake.GreaterThan(s.HighestBet) {
		s.HighestBet = stake
	}
	if s.Profit.GreaterThan(s.HighestProfit) {
		s.HighestProfit = s.Profit
	}
	if s.Profit.LessThan(s.LowestProfit) {
		s.LowestProfit = s.Profit
	}
	s.HighestStreak = max(s.HighestStreak, s.CurrentStreak)
	s.LowestStreak = min(s.LowestStreak, s.CurrentStreak)
}

// RTP is total payout over total wagered.
func (s *Statistics) RTP() float64 {
	if !s.Wagered.IsPositive() {
		return 0
	}
	return s.Wagered.Add(s.Profit).Div(s.Wagered).InexactFloat64()
}
