package models

import (
	"time"
)

// SessionInfo is the raw single-session view: session fields plus the
// resolved league name, with no valuation applied.
type SessionInfo struct {
	ID         string     `json:"id"`
	Game       Game       `json:"game"`
	LeagueID   string     `json:"league_id"`
	League     string     `json:"league"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	TotalCount int        `json:"total_count"`
	IsActive   bool       `json:"is_active"`
	SnapshotID *string    `json:"snapshot_id"`
}

// CardPriceView is one channel's price for one card in a session detail.
// Present for every card whenever the session's snapshot loaded, even when
// the card is unpriced, so the UI can always render the hide toggle.
type CardPriceView struct {
	ChaosValue  float64 `json:"chaos_value"`
	DivineValue float64 `json:"divine_value"`
	TotalValue  float64 `json:"total_value"`
	HidePrice   bool    `json:"hide_price"`
}

// DivinationCardInfo is catalog metadata attached to a breakdown entry,
// with wiki markup already cleaned to HTML.
type DivinationCardInfo struct {
	ID          uint   `json:"id"`
	StackSize   int    `json:"stack_size"`
	Description string `json:"description"`
	RewardHTML  string `json:"reward_html"`
	ArtSrc      string `json:"art_src"`
	FlavourHTML string `json:"flavour_html"`
	Rarity      int    `json:"rarity"`
}

// SessionCardDetail is one card's row in the per-session breakdown.
// Card is omitted when the catalog has no entry for the name; the price
// views are omitted when the session has no usable snapshot. Omitted means
// absent, never null-with-zeroes.
type SessionCardDetail struct {
	Name          string              `json:"name"`
	Count         int                 `json:"count"`
	Card          *DivinationCardInfo `json:"card,omitempty"`
	ExchangePrice *CardPriceView      `json:"exchange_price,omitempty"`
	StashPrice    *CardPriceView      `json:"stash_price,omitempty"`
}

// ChannelTotals aggregates one channel across a session's visible cards.
type ChannelTotals struct {
	TotalValue         float64 `json:"total_value"`
	NetProfit          float64 `json:"net_profit"`
	ChaosToDivineRatio float64 `json:"chaos_to_divine_ratio"`
}

// SessionDetailTotals is the totals block of a session detail, present only
// when the snapshot loaded.
type SessionDetailTotals struct {
	Exchange      ChannelTotals `json:"exchange"`
	Stash         ChannelTotals `json:"stash"`
	TotalDeckCost float64       `json:"total_deck_cost"`
}

// SessionDetail is the full per-card breakdown for one session.
type SessionDetail struct {
	ID            string               `json:"id"`
	Game          Game                 `json:"game"`
	LeagueID      string               `json:"league_id"`
	League        string               `json:"league"`
	TotalCount    int                  `json:"total_count"`
	StartedAt     time.Time            `json:"started_at"`
	EndedAt       *time.Time           `json:"ended_at"`
	IsActive      bool                 `json:"is_active"`
	Cards         []SessionCardDetail  `json:"cards"`
	Totals        *SessionDetailTotals `json:"totals,omitempty"`
	PriceSnapshot *SnapshotData        `json:"price_snapshot,omitempty"`
}

// CardDetailRow is a ledger entry joined with its catalog metadata at the
// store boundary. Card is nil when the catalog has no entry; when present
// its Rarity already reflects any league-scoped override.
type CardDetailRow struct {
	Name             string
	Count            int
	HideFromExchange bool
	HideFromStash    bool
	Card             *DivinationCard
}
