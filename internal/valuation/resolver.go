// Package valuation turns raw per-card counts plus a point-in-time price
// snapshot into resolved session economics. The one rule that matters: a
// summary-row field that is present and non-nil wins over the live-computed
// value, decided independently per field.
package valuation

import (
	"context"

	"go.uber.org/zap"

	"github.com/exiletally/deck-tracker/backend/internal/metrics"
	"github.com/exiletally/deck-tracker/backend/internal/models"
)

// Store is the read surface the resolver needs from the storage layer.
type Store interface {
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	Sessions(ctx context.Context, game models.Game, limit, offset int) ([]models.Session, error)
	CountSessions(ctx context.Context, game models.Game) (int64, error)
	SearchSessionsByCard(ctx context.Context, game models.Game, name string, limit, offset int) ([]models.Session, error)
	CountSessionsByCard(ctx context.Context, game models.Game, name string) (int64, error)
	SessionCards(ctx context.Context, sessionID string) ([]models.SessionCard, error)
	SessionCardDetails(ctx context.Context, sessionID string) ([]models.CardDetailRow, error)
	Snapshot(ctx context.Context, id string) (*models.SnapshotData, error)
	Summary(ctx context.Context, sessionID string) (*models.SessionSummaryRow, error)
	LeagueName(ctx context.Context, game models.Game, leagueID string) (string, error)
}

type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

func (r *Resolver) CountSessions(ctx context.Context, game models.Game) (int64, error) {
	return r.store.CountSessions(ctx, game)
}

// ListSessions returns one page of resolved session summaries, most recent
// first.
func (r *Resolver) ListSessions(ctx context.Context, game models.Game, limit, offset int) ([]models.SessionSummary, error) {
	sessions, err := r.store.Sessions(ctx, game, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.summarizeAll(ctx, sessions)
}

// SearchSessionsByCardName resolves sessions matched by card-name substring,
// each session appearing once regardless of how many cards matched.
func (r *Resolver) SearchSessionsByCardName(ctx context.Context, game models.Game, name string, limit, offset int) ([]models.SessionSummary, error) {
	sessions, err := r.store.SearchSessionsByCard(ctx, game, name, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.summarizeAll(ctx, sessions)
}

func (r *Resolver) CountSessionsByCardName(ctx context.Context, game models.Game, name string) (int64, error) {
	return r.store.CountSessionsByCard(ctx, game, name)
}

// SessionByID returns the raw session fields plus the resolved league name,
// without valuation. nil, nil when the session does not exist.
func (r *Resolver) SessionByID(ctx context.Context, id string) (*models.SessionInfo, error) {
	sess, err := r.store.SessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	league, err := r.store.LeagueName(ctx, sess.Game, sess.LeagueID)
	if err != nil {
		return nil, err
	}
	return &models.SessionInfo{
		ID:         sess.ID,
		Game:       sess.Game,
		LeagueID:   sess.LeagueID,
		League:     league,
		StartedAt:  sess.StartedAt,
		EndedAt:    sess.EndedAt,
		TotalCount: sess.TotalCount,
		IsActive:   sess.IsActive,
		SnapshotID: sess.SnapshotID,
	}, nil
}

func (r *Resolver) summarizeAll(ctx context.Context, sessions []models.Session) ([]models.SessionSummary, error) {
	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summary, err := r.summarize(ctx, sess)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// summarize resolves one session's metrics, field by field: summary-row
// value when present and non-nil, live computation otherwise.
func (r *Resolver) summarize(ctx context.Context, sess models.Session) (models.SessionSummary, error) {
	out := models.SessionSummary{
		ID:        sess.ID,
		Game:      sess.Game,
		LeagueID:  sess.LeagueID,
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
		IsActive:  sess.IsActive,
	}

	row, err := r.store.Summary(ctx, sess.ID)
	if err != nil {
		return out, err
	}

	var live liveMetrics
	if !summaryComplete(row) {
		metrics.ValuationFallbacksTotal.Inc()
		live, err = r.liveMetrics(ctx, sess)
		if err != nil {
			return out, err
		}
	}

	out.DurationMinutes = DurationMinutes(&sess)
	if row != nil && row.DurationMinutes != nil {
		out.DurationMinutes = row.DurationMinutes
	}
	out.TotalDecksOpened = pickInt(summaryField(row, func(r *models.SessionSummaryRow) *int { return r.TotalDecksOpened }), sess.TotalCount)
	out.TotalExchangeValue = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.TotalExchangeValue }), live.exchangeValue)
	out.TotalStashValue = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.TotalStashValue }), live.stashValue)
	out.TotalExchangeNetProfit = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.TotalExchangeNetProfit }), live.exchangeValue-live.deckCost)
	out.TotalStashNetProfit = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.TotalStashNetProfit }), live.stashValue-live.deckCost)
	out.ExchangeChaosToDivine = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.ExchangeChaosToDivine }), live.exchangeRatio)
	out.StashChaosToDivine = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.StashChaosToDivine }), live.stashRatio)
	out.StackedDeckChaosCost = pickFloat(summaryFieldF(row, func(r *models.SessionSummaryRow) *float64 { return r.StackedDeckChaosCost }), live.stackedDeckCost)

	return out, nil
}

// liveMetrics holds everything the resolver can compute without a summary
// row. Zero-valued when the session has no usable snapshot.
type liveMetrics struct {
	exchangeValue   float64
	stashValue      float64
	deckCost        float64
	exchangeRatio   float64
	stashRatio      float64
	stackedDeckCost float64
}

func (r *Resolver) liveMetrics(ctx context.Context, sess models.Session) (liveMetrics, error) {
	cards, err := r.store.SessionCards(ctx, sess.ID)
	if err != nil {
		return liveMetrics{}, err
	}
	snap, err := r.loadSnapshot(ctx, &sess)
	if err != nil {
		return liveMetrics{}, err
	}
	return computeLive(&sess, cards, snap), nil
}

// loadSnapshot resolves a session's snapshot reference. A missing snapshot
// id is treated like no snapshot at all, never an error.
func (r *Resolver) loadSnapshot(ctx context.Context, sess *models.Session) (*models.SnapshotData, error) {
	if sess.SnapshotID == nil {
		return nil, nil
	}
	snap, err := r.store.Snapshot(ctx, *sess.SnapshotID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		r.log.Warn("session references missing snapshot",
			zap.String("session_id", sess.ID),
			zap.String("snapshot_id", *sess.SnapshotID))
	}
	return snap, nil
}

// computeLive is the live-computation half of the precedence rule. Hidden
// cards are excluded per channel; unpriced cards contribute zero.
func computeLive(sess *models.Session, cards []models.SessionCard, snap *models.SnapshotData) liveMetrics {
	var m liveMetrics
	if snap == nil {
		return m
	}
	for _, card := range cards {
		if !card.HideFromExchange {
			m.exchangeValue += float64(card.Count) * snap.Exchange.Value(card.Name).ChaosValue
		}
		if !card.HideFromStash {
			m.stashValue += float64(card.Count) * snap.Stash.Value(card.Name).ChaosValue
		}
	}
	m.deckCost = snap.DeckCost * float64(sess.TotalCount)
	m.exchangeRatio = snap.Exchange.ChaosToDivineRatio
	m.stashRatio = snap.Stash.ChaosToDivineRatio
	m.stackedDeckCost = snap.DeckCost
	return m
}

// DurationMinutes is nil while the session is active, otherwise the whole
// minutes between start and end, truncated toward zero. A 45-second session
// reports 0 minutes.
func DurationMinutes(sess *models.Session) *int {
	if sess.EndedAt == nil {
		return nil
	}
	minutes := int(sess.EndedAt.Sub(sess.StartedAt).Minutes())
	return &minutes
}

// ComputeSummaryRow materializes a fully populated summary row from live
// data. The summary job calls this at session close; the resolver's
// fallback path must agree with it field for field.
func ComputeSummaryRow(sess *models.Session, cards []models.SessionCard, snap *models.SnapshotData) models.SessionSummaryRow {
	live := computeLive(sess, cards, snap)
	decks := sess.TotalCount
	exchangeNet := live.exchangeValue - live.deckCost
	stashNet := live.stashValue - live.deckCost
	return models.SessionSummaryRow{
		SessionID:              sess.ID,
		DurationMinutes:        DurationMinutes(sess),
		TotalDecksOpened:       &decks,
		TotalExchangeValue:     &live.exchangeValue,
		TotalStashValue:        &live.stashValue,
		TotalExchangeNetProfit: &exchangeNet,
		TotalStashNetProfit:    &stashNet,
		ExchangeChaosToDivine:  &live.exchangeRatio,
		StashChaosToDivine:     &live.stashRatio,
		StackedDeckChaosCost:   &live.stackedDeckCost,
	}
}

// summaryComplete reports whether every resolvable field is cached, i.e.
// whether live computation can be skipped entirely.
func summaryComplete(row *models.SessionSummaryRow) bool {
	return row != nil &&
		row.TotalExchangeValue != nil &&
		row.TotalStashValue != nil &&
		row.TotalExchangeNetProfit != nil &&
		row.TotalStashNetProfit != nil &&
		row.ExchangeChaosToDivine != nil &&
		row.StashChaosToDivine != nil &&
		row.StackedDeckChaosCost != nil
}

func summaryField(row *models.SessionSummaryRow, get func(*models.SessionSummaryRow) *int) *int {
	if row == nil {
		return nil
	}
	return get(row)
}

func summaryFieldF(row *models.SessionSummaryRow, get func(*models.SessionSummaryRow) *float64) *float64 {
	if row == nil {
		return nil
	}
	return get(row)
}

func pickInt(cached *int, live int) int {
	if cached != nil {
		return *cached
	}
	return live
}

func pickFloat(cached *float64, live float64) float64 {
	if cached != nil {
		return *cached
	}
	return live
}
