package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlayRecord is one attempt at the game.
type PlayRecord struct {
	ID        string     `json:"id"`
	PlayerID  string     `json:"playerId"`
	Attempt   int        `json:"attempt"`
	Duration  int        `json:"duration"`
	BatchSize int        `json:"batchSize"`
	Outcome   *string    `json:"outcome"`
	Score     int        `json:"score"`
	TimeLeft  *int       `json:"timeLeft"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
}

// PlayEnd is what is known once an attempt finishes.
type PlayEnd struct {
	Outcome  string
	Score    int
	TimeLeft int
	EndedAt  time.Time
}

// CreatePlay records the start of an attempt and returns its id.
func (d *DB) CreatePlay(playerID string, attempt, duration, batchSize int, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := d.conn.Exec(`
		INSERT INTO plays (id, player_id, attempt, duration, batch_size, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, playerID, attempt, duration, batchSize, startedAt)
	if err != nil {
		return "", fmt.Errorf("creating play: %w", err)
	}
	return id, nil
}

func (d *DB) EndPlay(playID string, end PlayEnd) error {
	res, err := d.conn.Exec(`
		UPDATE plays SET outcome = $2, score = $3, time_left = $4, ended_at = $5
		WHERE id = $1 AND ended_at IS NULL
	`, playID, end.Outcome, end.Score, end.TimeLeft, end.EndedAt)
	if err != nil {
		return fmt.Errorf("ending play: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ending play %s: not found or already ended", playID)
	}
	return nil
}

// GetPlay returns the attempt, or nil, nil when there is none.
func (d *DB) GetPlay(id string) (*PlayRecord, error) {
	var p PlayRecord
	err := d.conn.QueryRow(`
		SELECT id, player_id, attempt, duration, batch_size, outcome, score, time_left, started_at, ended_at
		FROM plays WHERE id = $1
	`, id).Scan(&p.ID, &p.PlayerID, &p.Attempt, &p.Duration, &p.BatchSize,
		&p.Outcome, &p.Score, &p.TimeLeft, &p.StartedAt, &p.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting play: %w", err)
	}
	return &p, nil
}
