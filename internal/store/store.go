// Package store is the storage boundary for the session tracker. All reads
// are parameterized queries against an injected gorm handle; expected
// absence (unknown session, missing snapshot, no summary row) is returned
// as nil, nil so callers never branch on error for missing data.
package store

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/exiletally/deck-tracker/backend/internal/metrics"
	"github.com/exiletally/deck-tracker/backend/internal/models"
)

// snapshotCacheSize bounds the assembled-snapshot cache. Snapshots are
// immutable, so cached entries never need invalidation.
const snapshotCacheSize = 32

type Store struct {
	db        *gorm.DB
	snapshots *lru.Cache[string, *models.SnapshotData]
}

func New(db *gorm.DB) (*Store, error) {
	snapshots, err := lru.New[string, *models.SnapshotData](snapshotCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, snapshots: snapshots}, nil
}

// SessionByID returns nil, nil when the session does not exist.
func (s *Store) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &sess, nil
}

// Sessions returns one page of a game's sessions, most recent first.
func (s *Store) Sessions(ctx context.Context, game models.Game, limit, offset int) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("game = ?", game).
		Order("started_at DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) CountSessions(ctx context.Context, game models.Game) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("game = ?", game).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// SearchSessionsByCard returns sessions with at least one ledger entry whose
// card name contains the substring, restricted to sessions that opened at
// least one deck. A session with several matching cards appears once.
// instr() keeps the match case-sensitive; sqlite LIKE would fold ASCII case.
func (s *Store) SearchSessionsByCard(ctx context.Context, game models.Game, name string, limit, offset int) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Distinct("sessions.*").
		Table("sessions").
		Joins("JOIN session_cards ON session_cards.session_id = sessions.id").
		Where("sessions.game = ? AND sessions.total_count > 0 AND instr(session_cards.name, ?) > 0", game, name).
		Order("sessions.started_at DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("search sessions by card: %w", err)
	}
	return sessions, nil
}

func (s *Store) CountSessionsByCard(ctx context.Context, game models.Game, name string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("sessions").
		Joins("JOIN session_cards ON session_cards.session_id = sessions.id").
		Where("sessions.game = ? AND sessions.total_count > 0 AND instr(session_cards.name, ?) > 0", game, name).
		Distinct("sessions.id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count sessions by card: %w", err)
	}
	return count, nil
}

// SessionCards returns a session's ledger entries.
func (s *Store) SessionCards(ctx context.Context, sessionID string) ([]models.SessionCard, error) {
	var cards []models.SessionCard
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("name ASC").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("load session cards: %w", err)
	}
	return cards, nil
}

// cardDetailScan is the raw joined row. Hide flags come back as sqlite
// integers here; the 0/1 representation never leaves this package.
type cardDetailScan struct {
	Name             string
	Count            int
	HideFromExchange int
	HideFromStash    int
	CardID           *uint
	StackSize        *int
	Description      *string
	RewardText       *string
	FlavourText      *string
	ArtSrc           *string
	Rarity           *int
	OverrideRarity   *int
}

// SessionCardDetails returns a session's ledger joined with the divination
// card catalog by (game, name) and the league-scoped rarity table. Entries
// without catalog metadata keep a nil Card.
func (s *Store) SessionCardDetails(ctx context.Context, sessionID string) ([]models.CardDetailRow, error) {
	var scans []cardDetailScan
	err := s.db.WithContext(ctx).Raw(`
		SELECT sc.name, sc.count, sc.hide_from_exchange, sc.hide_from_stash,
		       dc.id AS card_id, dc.stack_size, dc.description, dc.reward_text,
		       dc.flavour_text, dc.art_src, dc.rarity,
		       ovr.rarity AS override_rarity
		FROM session_cards sc
		JOIN sessions s ON s.id = sc.session_id
		LEFT JOIN divination_cards dc
		       ON dc.game = s.game AND dc.name = sc.name
		LEFT JOIN card_rarity_overrides ovr
		       ON ovr.game = s.game AND ovr.league_id = s.league_id AND ovr.name = sc.name
		WHERE sc.session_id = ?
		ORDER BY sc.name ASC`, sessionID).
		Scan(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("load session card details: %w", err)
	}

	rows := make([]models.CardDetailRow, 0, len(scans))
	for _, sc := range scans {
		row := models.CardDetailRow{
			Name:             sc.Name,
			Count:            sc.Count,
			HideFromExchange: sc.HideFromExchange != 0,
			HideFromStash:    sc.HideFromStash != 0,
		}
		if sc.CardID != nil {
			card := &models.DivinationCard{
				ID:     *sc.CardID,
				Name:   sc.Name,
				Rarity: models.DefaultCardRarity,
			}
			if sc.StackSize != nil {
				card.StackSize = *sc.StackSize
			}
			if sc.Description != nil {
				card.Description = *sc.Description
			}
			if sc.RewardText != nil {
				card.RewardText = *sc.RewardText
			}
			if sc.FlavourText != nil {
				card.FlavourText = *sc.FlavourText
			}
			if sc.ArtSrc != nil {
				card.ArtSrc = *sc.ArtSrc
			}
			// League override wins over the catalog rarity.
			if sc.OverrideRarity != nil {
				card.Rarity = *sc.OverrideRarity
			} else if sc.Rarity != nil {
				card.Rarity = *sc.Rarity
			}
			row.Card = card
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Snapshot loads and assembles a price snapshot. Returns nil, nil when the
// id does not resolve so callers degrade to the no-pricing shape.
func (s *Store) Snapshot(ctx context.Context, id string) (*models.SnapshotData, error) {
	if snap, ok := s.snapshots.Get(id); ok {
		metrics.SnapshotCacheHits.Inc()
		return snap, nil
	}
	metrics.SnapshotCacheMisses.Inc()

	var row models.PriceSnapshot
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var prices []models.SnapshotPrice
	if err := s.db.WithContext(ctx).Where("snapshot_id = ?", id).Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("load snapshot prices %s: %w", id, err)
	}

	snap := &models.SnapshotData{
		ID:        row.ID,
		Game:      row.Game,
		LeagueID:  row.LeagueID,
		FetchedAt: row.FetchedAt,
		DeckCost:  row.DeckCost,
		Exchange: models.ChannelPrices{
			ChaosToDivineRatio: row.ExchangeChaosToDivine,
			Prices:             make(map[string]models.CardValue),
		},
		Stash: models.ChannelPrices{
			ChaosToDivineRatio: row.StashChaosToDivine,
			Prices:             make(map[string]models.CardValue),
		},
	}
	for _, p := range prices {
		value := models.CardValue{ChaosValue: p.ChaosValue, DivineValue: p.DivineValue}
		switch p.Channel {
		case models.ChannelExchange:
			snap.Exchange.Prices[p.CardName] = value
		case models.ChannelStash:
			snap.Stash.Prices[p.CardName] = value
		}
	}

	s.snapshots.Add(id, snap)
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot header for a league, or
// nil, nil when none has been written yet.
func (s *Store) LatestSnapshot(ctx context.Context, game models.Game, leagueID string) (*models.PriceSnapshot, error) {
	var row models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("game = ? AND league_id = ?", game, leagueID).
		Order("fetched_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot %s/%s: %w", game, leagueID, err)
	}
	return &row, nil
}

// Summary returns nil, nil when the session was never summarized.
func (s *Store) Summary(ctx context.Context, sessionID string) (*models.SessionSummaryRow, error) {
	var row models.SessionSummaryRow
	err := s.db.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load summary for session %s: %w", sessionID, err)
	}
	return &row, nil
}

// LeagueName returns "" for an unknown league.
func (s *Store) LeagueName(ctx context.Context, game models.Game, leagueID string) (string, error) {
	var league models.League
	err := s.db.WithContext(ctx).First(&league, "game = ? AND league_id = ?", game, leagueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load league %s/%s: %w", game, leagueID, err)
	}
	return league.Name, nil
}
