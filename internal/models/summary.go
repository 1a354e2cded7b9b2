package models

import (
	"time"
)

// SessionSummaryRow is the precomputed metric cache written once when a
// session ends. Every metric field is nullable: a nil field falls back to
// live computation in the resolver, independently of the other fields.
type SessionSummaryRow struct {
	ID                     uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID              string    `json:"session_id" gorm:"not null;uniqueIndex"`
	DurationMinutes        *int      `json:"duration_minutes"`
	TotalDecksOpened       *int      `json:"total_decks_opened"`
	TotalExchangeValue     *float64  `json:"total_exchange_value"`
	TotalStashValue        *float64  `json:"total_stash_value"`
	TotalExchangeNetProfit *float64  `json:"total_exchange_net_profit"`
	TotalStashNetProfit    *float64  `json:"total_stash_net_profit"`
	ExchangeChaosToDivine  *float64  `json:"exchange_chaos_to_divine"`
	StashChaosToDivine     *float64  `json:"stash_chaos_to_divine"`
	StackedDeckChaosCost   *float64  `json:"stacked_deck_chaos_cost"`
	CreatedAt              time.Time `json:"created_at"`
}

// SessionSummary is the resolved aggregate view of one session: cached
// values where the summary row has them, live-computed values otherwise.
type SessionSummary struct {
	ID                     string     `json:"id"`
	Game                   Game       `json:"game"`
	LeagueID               string     `json:"league_id"`
	StartedAt              time.Time  `json:"started_at"`
	EndedAt                *time.Time `json:"ended_at"`
	IsActive               bool       `json:"is_active"`
	DurationMinutes        *int       `json:"duration_minutes"` // nil while active
	TotalDecksOpened       int        `json:"total_decks_opened"`
	TotalExchangeValue     float64    `json:"total_exchange_value"`
	TotalStashValue        float64    `json:"total_stash_value"`
	TotalExchangeNetProfit float64    `json:"total_exchange_net_profit"`
	TotalStashNetProfit    float64    `json:"total_stash_net_profit"`
	ExchangeChaosToDivine  float64    `json:"exchange_chaos_to_divine"`
	StashChaosToDivine     float64    `json:"stash_chaos_to_divine"`
	StackedDeckChaosCost   float64    `json:"stacked_deck_chaos_cost"`
}

// SessionPage is one page of resolved session summaries.
type SessionPage struct {
	Sessions   []SessionSummary `json:"sessions"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
