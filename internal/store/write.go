package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/exiletally/deck-tracker/backend/internal/models"
)

// CreateSession inserts a new active session.
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// EndSession marks a session inactive with the given end time.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"ended_at": endedAt, "is_active": false})
	if result.Error != nil {
		return fmt.Errorf("end session %s: %w", id, result.Error)
	}
	return nil
}

// SetSessionTotalCount updates the authoritative decks-opened count.
func (s *Store) SetSessionTotalCount(ctx context.Context, id string, totalCount int) error {
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Update("total_count", totalCount).Error
	if err != nil {
		return fmt.Errorf("update session total count: %w", err)
	}
	return nil
}

// UpsertSessionCard adds to an existing ledger entry's count or creates the
// entry. Uniqueness per (session, card name) is kept by the upsert.
func (s *Store) UpsertSessionCard(ctx context.Context, sessionID, name string, count int) error {
	card := models.SessionCard{SessionID: sessionID, Name: name, Count: count}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr("count + ?", count),
		}),
	}).Create(&card).Error
	if err != nil {
		return fmt.Errorf("upsert session card: %w", err)
	}
	return nil
}

// SetCardHidden toggles one channel's visibility flag on a ledger entry.
func (s *Store) SetCardHidden(ctx context.Context, sessionID, name string, channel models.PriceChannel, hidden bool) error {
	column := "hide_from_exchange"
	if channel == models.ChannelStash {
		column = "hide_from_stash"
	}
	result := s.db.WithContext(ctx).Model(&models.SessionCard{}).
		Where("session_id = ? AND name = ?", sessionID, name).
		Update(column, hidden)
	if result.Error != nil {
		return fmt.Errorf("set card hidden: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s has no card %q", sessionID, name)
	}
	return nil
}

// SaveSnapshot writes a snapshot header with its per-channel price rows in
// one transaction. Snapshots are never updated afterwards.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *models.PriceSnapshot, prices []models.SnapshotPrice) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		if len(prices) == 0 {
			return nil
		}
		return tx.CreateInBatches(prices, 500).Error
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// SaveSummary writes the summary row for a session, replacing any prior row.
func (s *Store) SaveSummary(ctx context.Context, row *models.SessionSummaryRow) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// UpsertLeague records a league name, updating it if already known.
func (s *Store) UpsertLeague(ctx context.Context, league *models.League) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game"}, {Name: "league_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(league).Error
	if err != nil {
		return fmt.Errorf("upsert league: %w", err)
	}
	return nil
}

// UpsertDivinationCards bulk-loads catalog metadata, replacing existing
// entries by (game, name).
func (s *Store) UpsertDivinationCards(ctx context.Context, cards []models.DivinationCard) error {
	if len(cards) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game"}, {Name: "name"}},
		UpdateAll: true,
	}).CreateInBatches(cards, 200).Error
	if err != nil {
		return fmt.Errorf("upsert divination cards: %w", err)
	}
	return nil
}
