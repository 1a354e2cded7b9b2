package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exiletally/deck-tracker/backend/internal/config"
	"github.com/exiletally/deck-tracker/backend/internal/models"
)

func testNinjaService(baseURL string) *NinjaService {
	return NewNinjaService(config.NinjaConfig{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		RateEvery: time.Millisecond,
		RateBurst: 10,
	})
}

func TestFetchCardPrices(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/itemoverview" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"league": r.URL.Query().Get("league"),
			"type":   r.URL.Query().Get("type"),
			"source": r.URL.Query().Get("source"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lines":[
			{"name":"The Doctor","chaosValue":5000,"divineValue":25},
			{"name":"Rain of Chaos","chaosValue":0.5,"divineValue":0.0025}
		]}`))
	}))
	defer server.Close()

	svc := testNinjaService(server.URL)
	lines, err := svc.FetchCardPrices(context.Background(), "Settlers", models.ChannelExchange)
	if err != nil {
		t.Fatalf("FetchCardPrices() error = %v", err)
	}

	if gotQuery["league"] != "Settlers" || gotQuery["type"] != "DivinationCard" || gotQuery["source"] != "exchange" {
		t.Errorf("query = %v, want league=Settlers type=DivinationCard source=exchange", gotQuery)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Name != "The Doctor" || lines[0].ChaosValue != 5000 || lines[0].DivineValue != 25 {
		t.Errorf("first line = %+v", lines[0])
	}
}

func TestFetchCurrencyRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/currencyoverview" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("source"); got != "stash" {
			t.Errorf("source = %q, want stash", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lines":[
			{"currencyTypeName":"Divine Orb","chaosEquivalent":195},
			{"currencyTypeName":"Stacked Deck","chaosEquivalent":3},
			{"currencyTypeName":"Exalted Orb","chaosEquivalent":12}
		]}`))
	}))
	defer server.Close()

	svc := testNinjaService(server.URL)
	rates, err := svc.FetchCurrencyRates(context.Background(), "Settlers", models.ChannelStash)
	if err != nil {
		t.Fatalf("FetchCurrencyRates() error = %v", err)
	}
	if rates.ChaosToDivine != 195 {
		t.Errorf("ChaosToDivine = %v, want 195", rates.ChaosToDivine)
	}
	if rates.DeckCost != 3 {
		t.Errorf("DeckCost = %v, want 3", rates.DeckCost)
	}
}

func TestFetchCurrencyRatesMissingLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lines":[]}`))
	}))
	defer server.Close()

	svc := testNinjaService(server.URL)
	rates, err := svc.FetchCurrencyRates(context.Background(), "Settlers", models.ChannelExchange)
	if err != nil {
		t.Fatalf("FetchCurrencyRates() error = %v", err)
	}
	if rates.ChaosToDivine != 0 || rates.DeckCost != 0 {
		t.Errorf("rates = %+v, want zeros for an empty overview", rates)
	}
}

func TestFetchCardPricesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := testNinjaService(server.URL)
	if _, err := svc.FetchCardPrices(context.Background(), "Settlers", models.ChannelExchange); err == nil {
		t.Error("FetchCardPrices() should surface non-200 responses as errors")
	}
}
