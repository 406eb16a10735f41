package analytics

import "time"

// PlayStats describes a single finished attempt.
type PlayStats struct {
	PlayID       string
	PlayerID     string
	PlayerName   string
	Attempt      int
	Outcome      string
	Score        int
	BatchSize    int
	Duration     int
	TimeLeft     int
	Categories   int // distinct categories collected
	Misses       int // the player's timeouts since their previous completion
	AvgReaction  float64
	BestReaction int
	StartedAt    time.Time
	EndedAt      *time.Time
}

// Completed reports whether the attempt revealed the letter.
func (s PlayStats) Completed() bool {
	return s.Outcome == "completed"
}

// Elapsed is the number of seconds the attempt ran.
func (s PlayStats) Elapsed() int {
	return s.Duration - s.TimeLeft
}

type LifetimeStats struct {
	PlayerID    string  `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	Plays       int     `json:"plays"`
	Completions int     `json:"completions"`
	BestScore   int     `json:"bestScore"`
	TotalStars  int     `json:"totalStars"`
	FastestWin  int     `json:"fastestWin"` // seconds, 0 without a completion
	Badges      []Badge `json:"badges"`
}

type LeaderboardEntry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Value      int    `json:"value"`
	Rank       int    `json:"rank"`
}
