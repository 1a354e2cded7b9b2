package models

import (
	"time"
)

type Game string

const (
	GamePoE  Game = "poe"
	GamePoE2 Game = "poe2"
)

// League maps a game-scoped league identifier to its display name.
type League struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Game     Game   `json:"game" gorm:"not null;uniqueIndex:idx_game_league"`
	LeagueID string `json:"league_id" gorm:"not null;uniqueIndex:idx_game_league"`
	Name     string `json:"name" gorm:"not null"`
}

// Session is one recorded interval of deck-opening activity. The valuation
// engine treats it as read-only input; lifecycle writes go through the store.
type Session struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Game       Game       `json:"game" gorm:"not null;index"`
	LeagueID   string     `json:"league_id" gorm:"not null;index"`
	StartedAt  time.Time  `json:"started_at" gorm:"not null;index"`
	EndedAt    *time.Time `json:"ended_at"` // nil while the session is active
	TotalCount int        `json:"total_count"`
	IsActive   bool       `json:"is_active"`
	SnapshotID *string    `json:"snapshot_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SessionCard is a ledger entry: the count of one card name obtained during a
// session, with per-channel visibility flags. A hidden card is excluded from
// that channel's totals but keeps its price in the per-card breakdown.
type SessionCard struct {
	ID               uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID        string `json:"session_id" gorm:"not null;uniqueIndex:idx_session_card"`
	Name             string `json:"name" gorm:"not null;uniqueIndex:idx_session_card"`
	Count            int    `json:"count"`
	HideFromExchange bool   `json:"hide_from_exchange"`
	HideFromStash    bool   `json:"hide_from_stash"`
}

type StartSessionRequest struct {
	Game       Game    `json:"game" binding:"required"`
	LeagueID   string  `json:"league_id" binding:"required"`
	LeagueName string  `json:"league_name"`
	SnapshotID *string `json:"snapshot_id"`
}

type SetTotalCountRequest struct {
	TotalCount int `json:"total_count"`
}

type AddCardRequest struct {
	Name  string `json:"name" binding:"required"`
	Count int    `json:"count"`
}

type SetCardHiddenRequest struct {
	Name    string       `json:"name" binding:"required"`
	Channel PriceChannel `json:"channel" binding:"required"`
	Hidden  bool         `json:"hidden"`
}
