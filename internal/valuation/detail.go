package valuation

import (
	"context"

	"github.com/exiletally/deck-tracker/backend/internal/models"
)

// SessionDetail assembles the full per-card breakdown for one session.
// Returns nil, nil when the session does not exist. A snapshot id that
// fails to resolve degrades to the no-pricing shape: price views, totals
// and the snapshot block are all omitted, exactly as if the session had no
// snapshot attached.
func (r *Resolver) SessionDetail(ctx context.Context, id string) (*models.SessionDetail, error) {
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
	rows, err := r.store.SessionCardDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := r.loadSnapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	detail := &models.SessionDetail{
		ID:         sess.ID,
		Game:       sess.Game,
		LeagueID:   sess.LeagueID,
		League:     league,
		TotalCount: sess.TotalCount,
		StartedAt:  sess.StartedAt,
		EndedAt:    sess.EndedAt,
		IsActive:   sess.IsActive,
		Cards:      make([]models.SessionCardDetail, 0, len(rows)),
	}

	for _, row := range rows {
		entry := models.SessionCardDetail{Name: row.Name, Count: row.Count}
		if row.Card != nil {
			entry.Card = &models.DivinationCardInfo{
				ID:          row.Card.ID,
				StackSize:   row.Card.StackSize,
				Description: row.Card.Description,
				RewardHTML:  CleanWikiMarkup(row.Card.RewardText),
				ArtSrc:      row.Card.ArtSrc,
				FlavourHTML: CleanWikiMarkup(row.Card.FlavourText),
				Rarity:      row.Card.Rarity,
			}
		}
		if snap != nil {
			// Price views exist for every card once a snapshot loaded,
			// including unpriced ones, so the hide toggle always renders.
			entry.ExchangePrice = priceView(snap.Exchange, row.Name, row.Count, row.HideFromExchange)
			entry.StashPrice = priceView(snap.Stash, row.Name, row.Count, row.HideFromStash)
		}
		detail.Cards = append(detail.Cards, entry)
	}

	if snap != nil {
		detail.Totals = assembleTotals(detail.Cards, sess, snap)
		detail.PriceSnapshot = snap
	}

	return detail, nil
}

func priceView(channel models.ChannelPrices, name string, count int, hidden bool) *models.CardPriceView {
	value := channel.Value(name)
	return &models.CardPriceView{
		ChaosValue:  value.ChaosValue,
		DivineValue: value.DivineValue,
		TotalValue:  value.ChaosValue * float64(count),
		HidePrice:   hidden,
	}
}

// assembleTotals sums each channel over its visible cards. A card hidden in
// one channel still counts in the other.
func assembleTotals(cards []models.SessionCardDetail, sess *models.Session, snap *models.SnapshotData) *models.SessionDetailTotals {
	totals := &models.SessionDetailTotals{
		TotalDeckCost: snap.DeckCost * float64(sess.TotalCount),
		Exchange:      models.ChannelTotals{ChaosToDivineRatio: snap.Exchange.ChaosToDivineRatio},
		Stash:         models.ChannelTotals{ChaosToDivineRatio: snap.Stash.ChaosToDivineRatio},
	}
	for _, card := range cards {
		if card.ExchangePrice != nil && !card.ExchangePrice.HidePrice {
			totals.Exchange.TotalValue += card.ExchangePrice.TotalValue
		}
		if card.StashPrice != nil && !card.StashPrice.HidePrice {
			totals.Stash.TotalValue += card.StashPrice.TotalValue
		}
	}
	totals.Exchange.NetProfit = totals.Exchange.TotalValue - totals.TotalDeckCost
	totals.Stash.NetProfit = totals.Stash.TotalValue - totals.TotalDeckCost
	return totals
}
