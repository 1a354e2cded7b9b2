package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/exiletally/deck-tracker/backend/internal/database"
	"github.com/exiletally/deck-tracker/backend/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	st, err := New(db)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return st
}

func seedSession(t *testing.T, st *Store, id string, startedAt time.Time, totalCount int, cards ...models.SessionCard) {
	t.Helper()
	sess := &models.Session{
		ID:         id,
		Game:       models.GamePoE,
		LeagueID:   "settlers",
		StartedAt:  startedAt,
		TotalCount: totalCount,
		IsActive:   true,
	}
	if err := st.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("seed session %s: %v", id, err)
	}
	for _, card := range cards {
		card.SessionID = id
		if err := st.db.Create(&card).Error; err != nil {
			t.Fatalf("seed card %s: %v", card.Name, err)
		}
	}
}

var seedStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSessionByIDAbsent(t *testing.T) {
	st := testStore(t)

	sess, err := st.SessionByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	if sess != nil {
		t.Errorf("SessionByID(missing) = %+v, want nil", sess)
	}
}

func TestSearchSessionsByCard(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// Two matching cards in one session: must appear once.
	seedSession(t, st, "s1", seedStart, 10,
		models.SessionCard{Name: "Rain of Chaos", Count: 5},
		models.SessionCard{Name: "Raining Cats", Count: 1},
	)
	// Matching card but zero decks opened: excluded.
	seedSession(t, st, "s2", seedStart.Add(time.Hour), 0,
		models.SessionCard{Name: "Rain of Chaos", Count: 2},
	)
	// Non-matching session.
	seedSession(t, st, "s3", seedStart.Add(2*time.Hour), 5,
		models.SessionCard{Name: "The Doctor", Count: 1},
	)

	got, err := st.SearchSessionsByCard(ctx, models.GamePoE, "Rain", 10, 0)
	if err != nil {
		t.Fatalf("SearchSessionsByCard() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("SearchSessionsByCard() = %+v, want exactly [s1]", got)
	}

	count, err := st.CountSessionsByCard(ctx, models.GamePoE, "Rain")
	if err != nil {
		t.Fatalf("CountSessionsByCard() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountSessionsByCard() = %d, want 1", count)
	}
}

func TestSearchSessionsByCardCaseSensitive(t *testing.T) {
	st := testStore(t)

	seedSession(t, st, "s1", seedStart, 10,
		models.SessionCard{Name: "Rain of Chaos", Count: 5},
	)

	got, err := st.SearchSessionsByCard(context.Background(), models.GamePoE, "rain", 10, 0)
	if err != nil {
		t.Fatalf("SearchSessionsByCard() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("substring match must be case-sensitive, got %d sessions for 'rain'", len(got))
	}
}

func TestSessionsOrderAndPaging(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedSession(t, st, fmt.Sprintf("s%d", i), seedStart.Add(time.Duration(i)*time.Hour), 1)
	}

	first, err := st.Sessions(ctx, models.GamePoE, 2, 0)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(first) != 2 || first[0].ID != "s4" || first[1].ID != "s3" {
		t.Fatalf("first page = %+v, want [s4 s3]", first)
	}

	second, err := st.Sessions(ctx, models.GamePoE, 2, 2)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(second) != 2 || second[0].ID != "s2" || second[1].ID != "s1" {
		t.Fatalf("second page = %+v, want [s2 s1]", second)
	}

	total, err := st.CountSessions(ctx, models.GamePoE)
	if err != nil {
		t.Fatalf("CountSessions() error = %v", err)
	}
	if total != 5 {
		t.Errorf("CountSessions() = %d, want 5", total)
	}
}

func TestSessionCardDetailsJoinsCatalog(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.UpsertDivinationCards(ctx, []models.DivinationCard{{
		Game:        models.GamePoE,
		Name:        "The Doctor",
		StackSize:   8,
		Description: "He knows your sickness.",
		RewardText:  "{{c|unique|[[Headhunter]]}}",
		Rarity:      1,
	}}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := st.db.Create(&models.CardRarityOverride{
		Game:     models.GamePoE,
		LeagueID: "settlers",
		Name:     "The Doctor",
		Rarity:   2,
	}).Error; err != nil {
		t.Fatalf("seed override: %v", err)
	}

	seedSession(t, st, "s1", seedStart, 10,
		models.SessionCard{Name: "The Doctor", Count: 2, HideFromExchange: true},
		models.SessionCard{Name: "Mystery Scrap", Count: 3},
	)

	rows, err := st.SessionCardDetails(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionCardDetails() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("SessionCardDetails() returned %d rows, want 2", len(rows))
	}

	scrap, doctor := rows[0], rows[1] // ordered by name
	if doctor.Name != "The Doctor" || scrap.Name != "Mystery Scrap" {
		t.Fatalf("unexpected row order: %q, %q", rows[0].Name, rows[1].Name)
	}

	// The hide flag survives the raw scan as a typed bool.
	if !doctor.HideFromExchange || doctor.HideFromStash {
		t.Errorf("hide flags = %v/%v, want true/false", doctor.HideFromExchange, doctor.HideFromStash)
	}
	if doctor.Card == nil {
		t.Fatal("catalogued card must carry metadata")
	}
	if doctor.Card.Rarity != 2 {
		t.Errorf("Rarity = %d, want league override 2", doctor.Card.Rarity)
	}
	if doctor.Card.StackSize != 8 {
		t.Errorf("StackSize = %d, want 8", doctor.Card.StackSize)
	}

	if scrap.Card != nil {
		t.Errorf("uncatalogued card metadata = %+v, want nil", scrap.Card)
	}
}

func TestSessionCardDetailsDefaultRarity(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.db.Exec(
		`INSERT INTO divination_cards (game, name, stack_size, rarity) VALUES (?, ?, ?, NULL)`,
		models.GamePoE, "The Union", 6,
	).Error; err != nil {
		t.Fatalf("seed catalog row: %v", err)
	}
	seedSession(t, st, "s1", seedStart, 10, models.SessionCard{Name: "The Union", Count: 1})

	rows, err := st.SessionCardDetails(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionCardDetails() error = %v", err)
	}
	if rows[0].Card == nil {
		t.Fatal("catalogued card must carry metadata")
	}
	if rows[0].Card.Rarity != models.DefaultCardRarity {
		t.Errorf("Rarity = %d, want default %d with no override and no catalog value", rows[0].Card.Rarity, models.DefaultCardRarity)
	}
}

func TestSnapshotAssemblyAndCache(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	header := &models.PriceSnapshot{
		ID:                    "snap-1",
		Game:                  models.GamePoE,
		LeagueID:              "settlers",
		FetchedAt:             seedStart,
		DeckCost:              3,
		ExchangeChaosToDivine: 200,
		StashChaosToDivine:    195,
	}
	prices := []models.SnapshotPrice{
		{SnapshotID: "snap-1", Channel: models.ChannelExchange, CardName: "The Doctor", ChaosValue: 5000, DivineValue: 25},
		{SnapshotID: "snap-1", Channel: models.ChannelStash, CardName: "The Doctor", ChaosValue: 4800, DivineValue: 24.6},
	}
	if err := st.SaveSnapshot(ctx, header, prices); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	snap, err := st.Snapshot(ctx, "snap-1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap == nil {
		t.Fatal("Snapshot() = nil, want assembled snapshot")
	}
	if snap.DeckCost != 3 {
		t.Errorf("DeckCost = %v, want 3", snap.DeckCost)
	}
	if got := snap.Exchange.Value("The Doctor").ChaosValue; got != 5000 {
		t.Errorf("exchange value = %v, want 5000", got)
	}
	if got := snap.Stash.Value("The Doctor").ChaosValue; got != 4800 {
		t.Errorf("stash value = %v, want 4800", got)
	}
	if got := snap.Exchange.Value("Unknown Card"); got.ChaosValue != 0 || got.DivineValue != 0 {
		t.Errorf("unpriced card = %+v, want zero value", got)
	}

	// Immutable snapshots are cached: the second load returns the same
	// assembled value.
	again, err := st.Snapshot(ctx, "snap-1")
	if err != nil {
		t.Fatalf("Snapshot() second load error = %v", err)
	}
	if again != snap {
		t.Error("second Snapshot() load should hit the cache")
	}

	missing, err := st.Snapshot(ctx, "nope")
	if err != nil {
		t.Fatalf("Snapshot(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("Snapshot(missing) = %+v, want nil", missing)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	absent, err := st.Summary(ctx, "s1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if absent != nil {
		t.Errorf("Summary(absent) = %+v, want nil", absent)
	}

	value := 123.5
	row := &models.SessionSummaryRow{SessionID: "s1", TotalExchangeValue: &value}
	if err := st.SaveSummary(ctx, row); err != nil {
		t.Fatalf("SaveSummary() error = %v", err)
	}

	got, err := st.Summary(ctx, "s1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got == nil || got.TotalExchangeValue == nil || *got.TotalExchangeValue != 123.5 {
		t.Errorf("Summary() = %+v, want TotalExchangeValue 123.5", got)
	}
	if got.TotalExchangeNetProfit != nil {
		t.Errorf("unset summary field = %v, want nil", *got.TotalExchangeNetProfit)
	}
}

func TestUpsertSessionCardMergesCounts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedSession(t, st, "s1", seedStart, 0)

	if err := st.UpsertSessionCard(ctx, "s1", "The Doctor", 2); err != nil {
		t.Fatalf("UpsertSessionCard() error = %v", err)
	}
	if err := st.UpsertSessionCard(ctx, "s1", "The Doctor", 3); err != nil {
		t.Fatalf("UpsertSessionCard() error = %v", err)
	}

	cards, err := st.SessionCards(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionCards() error = %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("SessionCards() returned %d rows, want 1 merged row", len(cards))
	}
	if cards[0].Count != 5 {
		t.Errorf("Count = %d, want 5 after merging", cards[0].Count)
	}
}

func TestSetCardHidden(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedSession(t, st, "s1", seedStart, 1, models.SessionCard{Name: "The Doctor", Count: 2})

	if err := st.SetCardHidden(ctx, "s1", "The Doctor", models.ChannelStash, true); err != nil {
		t.Fatalf("SetCardHidden() error = %v", err)
	}

	cards, err := st.SessionCards(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionCards() error = %v", err)
	}
	if cards[0].HideFromExchange || !cards[0].HideFromStash {
		t.Errorf("hide flags = %v/%v, want false/true", cards[0].HideFromExchange, cards[0].HideFromStash)
	}

	if err := st.SetCardHidden(ctx, "s1", "No Such Card", models.ChannelStash, true); err == nil {
		t.Error("SetCardHidden() on an unknown card should fail")
	}
}

func TestEndSessionAndLatestSnapshot(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedSession(t, st, "s1", seedStart, 10)
	endedAt := seedStart.Add(time.Hour)
	if err := st.EndSession(ctx, "s1", endedAt); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}

	sess, err := st.SessionByID(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	if sess.IsActive {
		t.Error("session must be inactive after EndSession")
	}
	if sess.EndedAt == nil || !sess.EndedAt.Equal(endedAt) {
		t.Errorf("EndedAt = %v, want %v", sess.EndedAt, endedAt)
	}

	none, err := st.LatestSnapshot(ctx, models.GamePoE, "settlers")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}
	if none != nil {
		t.Errorf("LatestSnapshot() = %+v, want nil with no snapshots", none)
	}

	older := &models.PriceSnapshot{ID: "old", Game: models.GamePoE, LeagueID: "settlers", FetchedAt: seedStart}
	newer := &models.PriceSnapshot{ID: "new", Game: models.GamePoE, LeagueID: "settlers", FetchedAt: seedStart.Add(time.Hour)}
	if err := st.SaveSnapshot(ctx, older, nil); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := st.SaveSnapshot(ctx, newer, nil); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	latest, err := st.LatestSnapshot(ctx, models.GamePoE, "settlers")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}
	if latest == nil || latest.ID != "new" {
		t.Errorf("LatestSnapshot() = %+v, want snapshot 'new'", latest)
	}
}

func TestLeagueName(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	name, err := st.LeagueName(ctx, models.GamePoE, "settlers")
	if err != nil {
		t.Fatalf("LeagueName() error = %v", err)
	}
	if name != "" {
		t.Errorf("LeagueName(unknown) = %q, want empty", name)
	}

	if err := st.UpsertLeague(ctx, &models.League{Game: models.GamePoE, LeagueID: "settlers", Name: "Settlers of Kalguur"}); err != nil {
		t.Fatalf("UpsertLeague() error = %v", err)
	}

	name, err = st.LeagueName(ctx, models.GamePoE, "settlers")
	if err != nil {
		t.Fatalf("LeagueName() error = %v", err)
	}
	if name != "Settlers of Kalguur" {
		t.Errorf("LeagueName() = %q, want Settlers of Kalguur", name)
	}
}
