package valuation

import (
	"context"
	"reflect"
	"testing"

	"github.com/exiletally/deck-tracker/backend/internal/models"
)

func detailFixture() *fakeStore {
	fs := newFakeStore()
	fs.snapshots["snap-1"] = doctorSnapshot()
	fs.sessions["s1"] = doctorSession("s1")
	fs.leagues["poe/settlers"] = "Settlers of Kalguur"
	fs.details["s1"] = []models.CardDetailRow{
		{
			Name:  "The Doctor",
			Count: 2,
			Card: &models.DivinationCard{
				ID:          7,
				Name:        "The Doctor",
				StackSize:   8,
				Description: "He knows your sickness.",
				RewardText:  "{{c|unique|[[Headhunter]]}}",
				FlavourText: "\"There is no cure.\"",
				ArtSrc:      "/art/the-doctor.png",
				Rarity:      1,
			},
		},
		{
			// In the ledger but not in the catalog and not priced.
			Name:  "Mystery Scrap",
			Count: 3,
		},
	}
	return fs
}

func TestSessionDetailWithSnapshot(t *testing.T) {
	r := NewResolver(detailFixture(), nil)

	detail, err := r.SessionDetail(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}
	if detail == nil {
		t.Fatal("SessionDetail() = nil, want detail")
	}

	if detail.League != "Settlers of Kalguur" {
		t.Errorf("League = %q, want resolved name", detail.League)
	}
	if detail.TotalCount != 50 {
		t.Errorf("TotalCount = %d, want 50", detail.TotalCount)
	}
	if len(detail.Cards) != 2 {
		t.Fatalf("detail has %d cards, want 2", len(detail.Cards))
	}

	doctor := detail.Cards[0]
	if doctor.Card == nil {
		t.Fatal("The Doctor should carry catalog metadata")
	}
	if doctor.Card.RewardHTML != `<span class="unique">Headhunter</span>` {
		t.Errorf("RewardHTML = %q, want cleaned span", doctor.Card.RewardHTML)
	}
	if doctor.Card.Rarity != 1 {
		t.Errorf("Rarity = %d, want 1 from the override-resolved row", doctor.Card.Rarity)
	}
	if doctor.ExchangePrice == nil || doctor.StashPrice == nil {
		t.Fatal("priced session must attach both price views")
	}
	if doctor.ExchangePrice.TotalValue != 10000 {
		t.Errorf("exchange TotalValue = %v, want 10000 (5000 x 2)", doctor.ExchangePrice.TotalValue)
	}

	scrap := detail.Cards[1]
	if scrap.Card != nil {
		t.Error("uncatalogued card must omit the metadata block entirely")
	}
	// Unpriced cards still get zero-valued price views so the hide toggle
	// can render.
	if scrap.ExchangePrice == nil || scrap.StashPrice == nil {
		t.Fatal("unpriced card should still carry zero-valued price views")
	}
	if scrap.ExchangePrice.ChaosValue != 0 || scrap.ExchangePrice.TotalValue != 0 {
		t.Errorf("unpriced card view = %+v, want zeroes", scrap.ExchangePrice)
	}

	if detail.Totals == nil {
		t.Fatal("Totals must be present when the snapshot loaded")
	}
	if detail.Totals.Exchange.TotalValue != 10000 || detail.Totals.Stash.TotalValue != 9600 {
		t.Errorf("totals = %v/%v, want 10000/9600", detail.Totals.Exchange.TotalValue, detail.Totals.Stash.TotalValue)
	}
	if detail.Totals.TotalDeckCost != 150 {
		t.Errorf("TotalDeckCost = %v, want 150 (3 x 50)", detail.Totals.TotalDeckCost)
	}
	if detail.Totals.Exchange.NetProfit != 9850 || detail.Totals.Stash.NetProfit != 9450 {
		t.Errorf("net profits = %v/%v, want 9850/9450", detail.Totals.Exchange.NetProfit, detail.Totals.Stash.NetProfit)
	}
	if detail.Totals.Exchange.ChaosToDivineRatio != 200 || detail.Totals.Stash.ChaosToDivineRatio != 195 {
		t.Errorf("ratios must pass through the snapshot verbatim, got %v/%v",
			detail.Totals.Exchange.ChaosToDivineRatio, detail.Totals.Stash.ChaosToDivineRatio)
	}
	if detail.PriceSnapshot == nil || detail.PriceSnapshot.ID != "snap-1" {
		t.Error("PriceSnapshot must be attached when it loaded")
	}
}

func TestSessionDetailHiddenCardKeepsPrice(t *testing.T) {
	fs := detailFixture()
	fs.details["s1"][0].HideFromExchange = true

	r := NewResolver(fs, nil)
	detail, err := r.SessionDetail(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}

	doctor := detail.Cards[0]
	if !doctor.ExchangePrice.HidePrice {
		t.Error("HidePrice flag must surface on the exchange view")
	}
	// Transparency: the price itself is shown, not zeroed.
	if doctor.ExchangePrice.ChaosValue != 5000 || doctor.ExchangePrice.TotalValue != 10000 {
		t.Errorf("hidden card price = %+v, must keep its value", doctor.ExchangePrice)
	}
	if detail.Totals.Exchange.TotalValue != 0 {
		t.Errorf("exchange total = %v, want 0 with the only card hidden", detail.Totals.Exchange.TotalValue)
	}
	if detail.Totals.Stash.TotalValue != 9600 {
		t.Errorf("stash total = %v, want 9600 unaffected", detail.Totals.Stash.TotalValue)
	}
}

func TestSessionDetailNoSnapshot(t *testing.T) {
	fs := detailFixture()
	sess := fs.sessions["s1"]
	sess.SnapshotID = nil
	fs.sessions["s1"] = sess

	r := NewResolver(fs, nil)
	detail, err := r.SessionDetail(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}

	if detail.Totals != nil || detail.PriceSnapshot != nil {
		t.Error("totals and snapshot must be omitted without pricing")
	}
	for _, card := range detail.Cards {
		if card.ExchangePrice != nil || card.StashPrice != nil {
			t.Errorf("card %s must omit price views without a snapshot", card.Name)
		}
	}
	// Catalog metadata is independent of pricing.
	if detail.Cards[0].Card == nil {
		t.Error("catalog metadata must survive the no-pricing shape")
	}
}

// A snapshot id that fails to load degrades to the no-pricing shape rather
// than failing the call.
func TestSessionDetailUnloadableSnapshot(t *testing.T) {
	fs := detailFixture()
	sess := fs.sessions["s1"]
	sess.SnapshotID = strptr("vanished")
	fs.sessions["s1"] = sess

	r := NewResolver(fs, nil)
	detail, err := r.SessionDetail(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v, want graceful degradation", err)
	}
	if detail.Totals != nil || detail.PriceSnapshot != nil {
		t.Error("unloadable snapshot must behave like no snapshot")
	}
}

func TestSessionDetailNotFound(t *testing.T) {
	r := NewResolver(newFakeStore(), nil)
	detail, err := r.SessionDetail(context.Background(), "nope")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}
	if detail != nil {
		t.Errorf("SessionDetail(missing) = %+v, want nil", detail)
	}
}

func TestSessionDetailIdempotent(t *testing.T) {
	r := NewResolver(detailFixture(), nil)
	ctx := context.Background()

	first, err := r.SessionDetail(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}
	second, err := r.SessionDetail(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionDetail() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated SessionDetail calls with no writes must be identical")
	}
}
