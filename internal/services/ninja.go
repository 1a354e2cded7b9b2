package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/exiletally/deck-tracker/backend/internal/config"
	"github.com/exiletally/deck-tracker/backend/internal/models"
)

const (
	stackedDeckCurrencyName = "Stacked Deck"
	divineOrbCurrencyName   = "Divine Orb"
)

// NinjaService fetches league economy data from the public price API. The
// API serves both valuation channels behind a source parameter: trade
// exchange listings and bulk stash-tab listings.
type NinjaService struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NinjaCardLine is one card's price in one channel.
type NinjaCardLine struct {
	Name        string  `json:"name"`
	ChaosValue  float64 `json:"chaosValue"`
	DivineValue float64 `json:"divineValue"`
}

type cardOverviewResponse struct {
	Lines []NinjaCardLine `json:"lines"`
}

type currencyLine struct {
	CurrencyTypeName string  `json:"currencyTypeName"`
	ChaosEquivalent  float64 `json:"chaosEquivalent"`
}

type currencyOverviewResponse struct {
	Lines []currencyLine `json:"lines"`
}

// ChannelRates holds one channel's currency-derived values.
type ChannelRates struct {
	ChaosToDivine float64
	DeckCost      float64
}

func NewNinjaService(cfg config.NinjaConfig) *NinjaService {
	every := cfg.RateEvery
	if every <= 0 {
		every = 2 * time.Second
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &NinjaService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

// FetchCardPrices returns every divination card line for a league in the
// given channel.
func (s *NinjaService) FetchCardPrices(ctx context.Context, league string, channel models.PriceChannel) ([]NinjaCardLine, error) {
	var resp cardOverviewResponse
	if err := s.get(ctx, "itemoverview", league, channel, "DivinationCard", &resp); err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

// FetchCurrencyRates returns the chaos-to-divine ratio and stacked deck
// cost for a league in the given channel. Either value may be zero when
// the league has no data yet.
func (s *NinjaService) FetchCurrencyRates(ctx context.Context, league string, channel models.PriceChannel) (ChannelRates, error) {
	var resp currencyOverviewResponse
	if err := s.get(ctx, "currencyoverview", league, channel, "Currency", &resp); err != nil {
		return ChannelRates{}, err
	}

	var rates ChannelRates
	for _, line := range resp.Lines {
		switch line.CurrencyTypeName {
		case divineOrbCurrencyName:
			rates.ChaosToDivine = line.ChaosEquivalent
		case stackedDeckCurrencyName:
			rates.DeckCost = line.ChaosEquivalent
		}
	}
	return rates, nil
}

func (s *NinjaService) get(ctx context.Context, endpoint, league string, channel models.PriceChannel, itemType string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("league", league)
	q.Set("type", itemType)
	q.Set("source", string(channel))
	reqURL := fmt.Sprintf("%s/%s?%s", s.baseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("price API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price API returned status %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode price API response: %w", err)
	}
	return nil
}
