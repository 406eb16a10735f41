package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"lunastars/internal/accounts"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// UpsertUser writes the profile row for u. An email already owned by a
// different user is reported as accounts.ErrEmailInUse.
func (d *DB) UpsertUser(u *accounts.User) error {
	scores, err := json.Marshal(u.HighScores)
	if err != nil {
		return fmt.Errorf("encoding high scores: %w", err)
	}
	_, err = d.conn.Exec(`
		INSERT INTO users (id, username, email, avatar, bio, high_scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET username = $2, email = $3, avatar = $4, bio = $5, high_scores = $6
	`, u.ID, u.Username, u.Email, u.Avatar, u.Bio, scores, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return accounts.ErrEmailInUse
		}
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// LoadUser returns the user signed in on the device key, or nil.
func (d *DB) LoadUser(key string) (*accounts.User, error) {
	var (
		u      accounts.User
		scores []byte
	)
	err := d.conn.QueryRow(`
		SELECT u.id, u.username, u.email, u.avatar, u.bio, u.high_scores, u.created_at
		FROM devices d JOIN users u ON u.id = d.user_id
		WHERE d.key = $1
	`, key).Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.Bio, &scores, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if err := json.Unmarshal(scores, &u.HighScores); err != nil {
		return nil, fmt.Errorf("decoding high scores: %w", err)
	}
	return &u, nil
}

// SaveUser upserts u and signs it in on the device key.
func (d *DB) SaveUser(key string, u *accounts.User) error {
	if err := d.UpsertUser(u); err != nil {
		return err
	}
	_, err := d.conn.Exec(`
		INSERT INTO devices (key, user_id)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET user_id = $2, signed_in = now()
	`, key, u.ID)
	if err != nil {
		return fmt.Errorf("saving device: %w", err)
	}
	return nil
}

// DeleteUser signs the device out. The user row is kept.
func (d *DB) DeleteUser(key string) error {
	if _, err := d.conn.Exec(`DELETE FROM devices WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return nil
}

var _ accounts.Store = (*DB)(nil)
