package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/exiletally/deck-tracker/backend/internal/metrics"
	"github.com/exiletally/deck-tracker/backend/internal/models"
	"github.com/exiletally/deck-tracker/backend/internal/store"
	"github.com/exiletally/deck-tracker/backend/internal/valuation"
)

// SummaryService materializes the aggregate metric cache when a session
// closes. The resolver prefers these cached values field by field, so the
// row is computed with the exact same live definitions the resolver falls
// back to.
type SummaryService struct {
	store *store.Store
	log   *zap.Logger
}

func NewSummaryService(st *store.Store, log *zap.Logger) *SummaryService {
	return &SummaryService{store: st, log: log}
}

// Materialize computes and writes the summary row for an ended session. A
// session with no snapshot still gets a row; its value fields cache zeroes.
func (s *SummaryService) Materialize(ctx context.Context, sess *models.Session) error {
	cards, err := s.store.SessionCards(ctx, sess.ID)
	if err != nil {
		return err
	}

	var snap *models.SnapshotData
	if sess.SnapshotID != nil {
		snap, err = s.store.Snapshot(ctx, *sess.SnapshotID)
		if err != nil {
			return err
		}
	}

	row := valuation.ComputeSummaryRow(sess, cards, snap)
	if err := s.store.SaveSummary(ctx, &row); err != nil {
		return err
	}

	metrics.SummariesWrittenTotal.Inc()
	s.log.Info("session summary materialized",
		zap.String("session_id", sess.ID),
		zap.Int("cards", len(cards)),
		zap.Bool("priced", snap != nil))
	return nil
}
