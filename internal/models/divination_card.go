package models

// DefaultCardRarity is used when a card has no league-specific override.
const DefaultCardRarity = 4

// DivinationCard is reference metadata for one card, keyed by (game, name).
// Reward and flavour text are stored as raw wiki markup and cleaned to HTML
// when assembled into a session detail.
type DivinationCard struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Game        Game   `json:"game" gorm:"not null;uniqueIndex:idx_card_game_name"`
	Name        string `json:"name" gorm:"not null;uniqueIndex:idx_card_game_name"`
	StackSize   int    `json:"stack_size"`
	Description string `json:"description"`
	RewardText  string `json:"reward_text"`
	FlavourText string `json:"flavour_text"`
	ArtSrc      string `json:"art_src"`
	Rarity      int    `json:"rarity" gorm:"default:4"`
}

// CardRarityOverride is a league-scoped rarity override for one card.
type CardRarityOverride struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Game     Game   `json:"game" gorm:"not null;uniqueIndex:idx_rarity_game_league_name"`
	LeagueID string `json:"league_id" gorm:"not null;uniqueIndex:idx_rarity_game_league_name"`
	Name     string `json:"name" gorm:"not null;uniqueIndex:idx_rarity_game_league_name"`
	Rarity   int    `json:"rarity"`
}
