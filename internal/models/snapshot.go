package models

import (
	"time"
)

// PriceChannel is one of the two valuation sources for a card.
type PriceChannel string

const (
	ChannelExchange PriceChannel = "exchange"
	ChannelStash    PriceChannel = "stash"
)

// AllPriceChannels returns both valuation channels.
func AllPriceChannels() []PriceChannel {
	return []PriceChannel{ChannelExchange, ChannelStash}
}

// PriceSnapshot is an immutable point-in-time price table for a league.
// Per-card values live in SnapshotPrice child rows, one per channel.
type PriceSnapshot struct {
	ID                    string    `json:"id" gorm:"primaryKey"`
	Game                  Game      `json:"game" gorm:"not null;index"`
	LeagueID              string    `json:"league_id" gorm:"not null;index"`
	FetchedAt             time.Time `json:"fetched_at" gorm:"not null"`
	DeckCost              float64   `json:"deck_cost"` // chaos cost of one stacked deck
	ExchangeChaosToDivine float64   `json:"exchange_chaos_to_divine"`
	StashChaosToDivine    float64   `json:"stash_chaos_to_divine"`
	CreatedAt             time.Time `json:"created_at"`
}

// SnapshotPrice is one card's value in one channel of a snapshot.
type SnapshotPrice struct {
	ID          uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	SnapshotID  string       `json:"snapshot_id" gorm:"not null;uniqueIndex:idx_snapshot_channel_card"`
	Channel     PriceChannel `json:"channel" gorm:"not null;uniqueIndex:idx_snapshot_channel_card"`
	CardName    string       `json:"card_name" gorm:"not null;uniqueIndex:idx_snapshot_channel_card"`
	ChaosValue  float64      `json:"chaos_value"`
	DivineValue float64      `json:"divine_value"`
}

// CardValue is a card's worth in chaos and divine orbs.
type CardValue struct {
	ChaosValue  float64 `json:"chaos_value"`
	DivineValue float64 `json:"divine_value"`
}

// ChannelPrices is one channel's slice of an assembled snapshot.
type ChannelPrices struct {
	ChaosToDivineRatio float64              `json:"chaos_to_divine_ratio"`
	Prices             map[string]CardValue `json:"prices"`
}

// Value returns the card's value in this channel, zero when the card is not
// priced. Unpriced cards are valid zero-valued data, never an error.
func (c ChannelPrices) Value(name string) CardValue {
	return c.Prices[name]
}

// SnapshotData is a fully assembled snapshot as the valuation engine
// consumes it: deck cost plus both channels keyed by card name.
type SnapshotData struct {
	ID        string        `json:"id"`
	Game      Game          `json:"game"`
	LeagueID  string        `json:"league_id"`
	FetchedAt time.Time     `json:"fetched_at"`
	DeckCost  float64       `json:"deck_cost"`
	Exchange  ChannelPrices `json:"exchange"`
	Stash     ChannelPrices `json:"stash"`
}

// Channel returns the named channel's prices.
func (s *SnapshotData) Channel(ch PriceChannel) ChannelPrices {
	if ch == ChannelStash {
		return s.Stash
	}
	return s.Exchange
}
