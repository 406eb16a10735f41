package analytics

import (
	"fmt"
	"lunastars/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetPlayStats(playID string) (*PlayStats, error) {
	stats := &PlayStats{PlayID: playID}

	var outcome *string
	var timeLeft *int
	err := q.DB.QueryRow(`
		SELECT pl.player_id, p.name, pl.attempt, pl.outcome, pl.score, pl.batch_size,
			pl.duration, pl.time_left, pl.started_at, pl.ended_at
		FROM plays pl
		JOIN players p ON p.id = pl.player_id
		WHERE pl.id = $1
	`, playID).Scan(&stats.PlayerID, &stats.PlayerName, &stats.Attempt, &outcome, &stats.Score,
		&stats.BatchSize, &stats.Duration, &timeLeft, &stats.StartedAt, &stats.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("getting play: %w", err)
	}
	if outcome != nil {
		stats.Outcome = *outcome
	}
	if timeLeft != nil {
		stats.TimeLeft = *timeLeft
	}

	err = q.DB.QueryRow(`
		SELECT
			COUNT(DISTINCT category) as categories,
			COALESCE(AVG(reaction_ms), 0) as avg_reaction,
			COALESCE(MIN(reaction_ms), 0) as best_reaction
		FROM collections
		WHERE play_id = $1
	`, playID).Scan(&stats.Categories, &stats.AvgReaction, &stats.BestReaction)
	if err != nil {
		return nil, fmt.Errorf("getting collection stats: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT COUNT(*) FILTER (WHERE outcome = 'timeout')
		FROM plays
		WHERE player_id = $1 AND started_at < $2
			AND started_at > COALESCE((
				SELECT MAX(started_at) FROM plays
				WHERE player_id = $1 AND outcome = 'completed' AND started_at < $2
			), '-infinity'::timestamptz)
	`, stats.PlayerID, stats.StartedAt).Scan(&stats.Misses)
	if err != nil {
		return nil, fmt.Errorf("counting misses: %w", err)
	}

	return stats, nil
}

func (q *Queries) GetPlayerLifetimeStats(playerID string) (*LifetimeStats, error) {
	stats := &LifetimeStats{PlayerID: playerID}

	err := q.DB.QueryRow(`SELECT name FROM players WHERE id = $1`, playerID).Scan(&stats.PlayerName)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT
			COUNT(*) as plays,
			COUNT(*) FILTER (WHERE outcome = 'completed') as completions,
			COALESCE(MAX(score), 0) as best_score,
			COALESCE(SUM(score), 0) as total_stars,
			COALESCE(MIN(duration - time_left) FILTER (WHERE outcome = 'completed'), 0) as fastest_win
		FROM plays
		WHERE player_id = $1 AND ended_at IS NOT NULL
	`, playerID).Scan(&stats.Plays, &stats.Completions, &stats.BestScore, &stats.TotalStars, &stats.FastestWin)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime stats: %w", err)
	}

	stats.Badges = EvaluateLifetimeBadges(*stats)

	return stats, nil
}

// GetLeaderboard ranks players by best score, fastest completion in seconds,
// or number of finished plays.
func (q *Queries) GetLeaderboard(category string, limit int) ([]LeaderboardEntry, error) {
	var query string
	switch category {
	case "score":
		query = `
			SELECT p.id, p.name, COALESCE(MAX(pl.score), 0) as value
			FROM players p
			JOIN plays pl ON pl.player_id = p.id AND pl.ended_at IS NOT NULL
			GROUP BY p.id, p.name
			ORDER BY value DESC
			LIMIT $1`
	case "fastest":
		query = `
			SELECT p.id, p.name, MIN(pl.duration - pl.time_left) as value
			FROM players p
			JOIN plays pl ON pl.player_id = p.id AND pl.outcome = 'completed'
			GROUP BY p.id, p.name
			ORDER BY value ASC
			LIMIT $1`
	case "plays":
		query = `
			SELECT p.id, p.name, COUNT(pl.id) as value
			FROM players p
			JOIN plays pl ON pl.player_id = p.id AND pl.ended_at IS NOT NULL
			GROUP BY p.id, p.name
			ORDER BY value DESC
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %s", category)
	}

	rows, err := q.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AwardPlayBadges evaluates and stores the badges earned by a finished play
// and by the player's lifetime totals.
func (q *Queries) AwardPlayBadges(playID string) ([]Badge, error) {
	stats, err := q.GetPlayStats(playID)
	if err != nil {
		return nil, err
	}
	earned := EvaluatePlayBadges(*stats)

	lifetime, err := q.GetPlayerLifetimeStats(stats.PlayerID)
	if err != nil {
		return nil, err
	}
	earned = append(earned, lifetime.Badges...)

	for _, b := range earned {
		if err := q.DB.AwardBadge(stats.PlayerID, string(b.ID), &playID); err != nil {
			return nil, err
		}
	}
	return earned, nil
}
