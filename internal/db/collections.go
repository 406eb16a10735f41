package db

import (
	"fmt"
	"time"
)

type CollectionEvent struct {
	PlayID      string
	PlayerID    string
	ItemID      int
	Category    string
	ItemX       int
	ItemY       int
	SpawnedAt   time.Time
	CollectedAt time.Time
	ReactionMs  int
}

const insertCollection = `
	INSERT INTO collections (play_id, player_id, item_id, category, item_x, item_y, spawned_at, collected_at, reaction_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (d *DB) RecordCollection(ev CollectionEvent) error {
	_, err := d.conn.Exec(insertCollection,
		ev.PlayID, ev.PlayerID, ev.ItemID, ev.Category, ev.ItemX, ev.ItemY, ev.SpawnedAt, ev.CollectedAt, ev.ReactionMs)
	if err != nil {
		return fmt.Errorf("recording collection: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordCollections(events []CollectionEvent) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertCollection)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.PlayID, ev.PlayerID, ev.ItemID, ev.Category, ev.ItemX, ev.ItemY, ev.SpawnedAt, ev.CollectedAt, ev.ReactionMs); err != nil {
			return fmt.Errorf("recording collection in batch: %w", err)
		}
	}

	return tx.Commit()
}
