// Command import-cards loads divination card catalog metadata from a JSON
// export into the tracker database. Run it once per game, and again whenever
// the card pool changes:
//
//	go run ./cmd/import-cards -db ./deck_tracker.db -game poe -file cards.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/exiletally/deck-tracker/backend/internal/database"
	"github.com/exiletally/deck-tracker/backend/internal/models"
	"github.com/exiletally/deck-tracker/backend/internal/store"
)

type cardExport struct {
	Name        string `json:"name"`
	StackSize   int    `json:"stackSize"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	Flavour     string `json:"flavour"`
	ArtSrc      string `json:"artSrc"`
	Rarity      int    `json:"rarity"`
}

func main() {
	dbPath := flag.String("db", "./deck_tracker.db", "path to the tracker database")
	game := flag.String("game", string(models.GamePoE), "game the cards belong to")
	file := flag.String("file", "", "path to the card catalog JSON export")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	var exports []cardExport
	if err := json.Unmarshal(data, &exports); err != nil {
		log.Fatalf("Failed to parse card export: %v", err)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	st, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	cards := make([]models.DivinationCard, 0, len(exports))
	for _, e := range exports {
		rarity := e.Rarity
		if rarity == 0 {
			rarity = models.DefaultCardRarity
		}
		cards = append(cards, models.DivinationCard{
			Game:        models.Game(*game),
			Name:        e.Name,
			StackSize:   e.StackSize,
			Description: e.Description,
			RewardText:  e.Reward,
			FlavourText: e.Flavour,
			ArtSrc:      e.ArtSrc,
			Rarity:      rarity,
		})
	}

	if err := st.UpsertDivinationCards(context.Background(), cards); err != nil {
		log.Fatalf("Failed to import cards: %v", err)
	}

	log.Printf("Imported %d divination cards for %s", len(cards), *game)
}
