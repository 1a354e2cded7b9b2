package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exiletally/deck-tracker/backend/internal/config"
	"github.com/exiletally/deck-tracker/backend/internal/metrics"
	"github.com/exiletally/deck-tracker/backend/internal/models"
	"github.com/exiletally/deck-tracker/backend/internal/store"
)

// SnapshotService keeps a fresh price snapshot per configured league. Each
// refresh writes a brand-new immutable snapshot; existing snapshots that
// sessions reference are never touched.
type SnapshotService struct {
	store         *store.Store
	ninja         *NinjaService
	log           *zap.Logger
	game          models.Game
	leagues       []string
	checkInterval time.Duration
	maxAge        time.Duration
}

func NewSnapshotService(st *store.Store, ninja *NinjaService, cfg config.SnapshotConfig, log *zap.Logger) *SnapshotService {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 6 * time.Hour
	}
	return &SnapshotService{
		store:         st,
		ninja:         ninja,
		log:           log,
		game:          models.Game(cfg.Game),
		leagues:       cfg.Leagues,
		checkInterval: interval,
		maxAge:        maxAge,
	}
}

// Start begins the background refresh worker.
func (s *SnapshotService) Start(ctx context.Context) {
	s.log.Info("snapshot service started",
		zap.Strings("leagues", s.leagues),
		zap.Duration("check_interval", s.checkInterval))

	s.refreshStale(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("snapshot service stopping")
			return
		case <-ticker.C:
			s.refreshStale(ctx)
		}
	}
}

func (s *SnapshotService) refreshStale(ctx context.Context) {
	for _, league := range s.leagues {
		fresh, err := s.hasFreshSnapshot(ctx, league)
		if err != nil {
			s.log.Warn("snapshot freshness check failed", zap.String("league", league), zap.Error(err))
			continue
		}
		if fresh {
			continue
		}
		if _, err := s.RefreshLeague(ctx, s.game, league); err != nil {
			s.log.Warn("snapshot refresh failed", zap.String("league", league), zap.Error(err))
		}
	}
}

func (s *SnapshotService) hasFreshSnapshot(ctx context.Context, league string) (bool, error) {
	latest, err := s.store.LatestSnapshot(ctx, s.game, league)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	return time.Since(latest.FetchedAt) < s.maxAge, nil
}

// RefreshLeague fetches both channels for a league and persists a new
// snapshot. Returns the written snapshot header.
func (s *SnapshotService) RefreshLeague(ctx context.Context, game models.Game, league string) (*models.PriceSnapshot, error) {
	start := time.Now()

	exchangeRates, err := s.ninja.FetchCurrencyRates(ctx, league, models.ChannelExchange)
	if err != nil {
		metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	stashRates, err := s.ninja.FetchCurrencyRates(ctx, league, models.ChannelStash)
	if err != nil {
		metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	snapshot := &models.PriceSnapshot{
		ID:                    uuid.New().String(),
		Game:                  game,
		LeagueID:              league,
		FetchedAt:             time.Now(),
		DeckCost:              exchangeRates.DeckCost,
		ExchangeChaosToDivine: exchangeRates.ChaosToDivine,
		StashChaosToDivine:    stashRates.ChaosToDivine,
	}
	if snapshot.DeckCost == 0 {
		snapshot.DeckCost = stashRates.DeckCost
	}

	var prices []models.SnapshotPrice
	for _, channel := range models.AllPriceChannels() {
		lines, err := s.ninja.FetchCardPrices(ctx, league, channel)
		if err != nil {
			metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		for _, line := range lines {
			prices = append(prices, models.SnapshotPrice{
				SnapshotID:  snapshot.ID,
				Channel:     channel,
				CardName:    line.Name,
				ChaosValue:  line.ChaosValue,
				DivineValue: line.DivineValue,
			})
		}
	}

	if err := s.store.SaveSnapshot(ctx, snapshot, prices); err != nil {
		metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SnapshotFetchesTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotFetchDuration.Observe(time.Since(start).Seconds())
	s.log.Info("price snapshot written",
		zap.String("snapshot_id", snapshot.ID),
		zap.String("league", league),
		zap.Int("prices", len(prices)),
		zap.Float64("deck_cost", snapshot.DeckCost))

	return snapshot, nil
}
