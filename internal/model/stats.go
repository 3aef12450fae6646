package model

import "github.com/shopspring/decimal"

// LeaderboardEntry is one row of the premium leaderboard, not a table
type LeaderboardEntry struct {
	UserID       string          `json:"-"`
	UserName     string          `json:"userName"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
}
