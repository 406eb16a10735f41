package db

import (
	"fmt"
	"time"
)

// PlayerRecord is a browser that has played at least once.
type PlayerRecord struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

func (d *DB) UpsertPlayer(id, name string) error {
	_, err := d.conn.Exec(`
		INSERT INTO players (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = $2
	`, id, name)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

func (d *DB) GetPlayer(id string) (*PlayerRecord, error) {
	var p PlayerRecord
	err := d.conn.QueryRow(`
		SELECT id, name, created_at FROM players WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}
