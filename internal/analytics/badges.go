package analytics

import "lunastars/internal/items"

type BadgeID string

const (
	BadgeStargazer     BadgeID = "stargazer"
	BadgeSwiftHeart    BadgeID = "swift_heart"
	BadgeConstellation BadgeID = "constellation"
	BadgePersistent    BadgeID = "persistent"
	BadgeDevoted       BadgeID = "devoted"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeStargazer:     {ID: BadgeStargazer, Name: "Stargazer", Description: "Revealed the letter on the first attempt", Icon: "🌟"},
	BadgeSwiftHeart:    {ID: BadgeSwiftHeart, Name: "Swift Heart", Description: "Revealed the letter with 30+ seconds left", Icon: "💓"},
	BadgeConstellation: {ID: BadgeConstellation, Name: "Constellation", Description: "Collected a star of every kind in one attempt", Icon: "✨"},
	BadgePersistent:    {ID: BadgePersistent, Name: "Persistent", Description: "Revealed the letter after 3+ missed attempts", Icon: "🌙"},
	BadgeDevoted:       {ID: BadgeDevoted, Name: "Devoted", Description: "Revealed the letter 10 times", Icon: "💌"},
}

const (
	// SwiftHeartSeconds is the time that must remain on a completed attempt.
	SwiftHeartSeconds = 30
	// PersistentMisses is the number of timeouts since the last completion.
	PersistentMisses = 3
)

// EvaluatePlayBadges checks which badges a single attempt earned.
func EvaluatePlayBadges(stats PlayStats) []Badge {
	var earned []Badge

	if stats.Completed() && stats.Attempt == 1 {
		earned = append(earned, AllBadges[BadgeStargazer])
	}

	if stats.Completed() && stats.TimeLeft >= SwiftHeartSeconds {
		earned = append(earned, AllBadges[BadgeSwiftHeart])
	}

	if stats.Categories >= len(items.Categories) {
		earned = append(earned, AllBadges[BadgeConstellation])
	}

	if stats.Completed() && stats.Misses >= PersistentMisses {
		earned = append(earned, AllBadges[BadgePersistent])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across all plays.
func EvaluateLifetimeBadges(stats LifetimeStats) []Badge {
	var earned []Badge

	if stats.Completions >= 10 {
		earned = append(earned, AllBadges[BadgeDevoted])
	}

	return earned
}
