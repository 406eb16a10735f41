package server

import (
	"context"
	"lunastars/internal/db"
	"lunastars/internal/metrics"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestCollectionWriter_FallsBackToSingleRows(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.Exec("DELETE FROM collections")
		database.Exec("DELETE FROM plays")
		database.Exec("DELETE FROM players")
		database.Close()
	})

	playerID := uuid.NewString()
	if err := database.UpsertPlayer(playerID, "Luna"); err != nil {
		t.Fatal(err)
	}
	playID, err := database.CreatePlay(playerID, 1, 45, 15, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	w := newCollectionWriter(database, 10, zap.NewNop(), m)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	now := time.Now()
	good := db.CollectionEvent{PlayID: playID, PlayerID: playerID, ItemID: 0, Category: "soccer", SpawnedAt: now, CollectedAt: now}
	orphan := good
	orphan.PlayID = uuid.NewString() // no such play
	w.Add(good)
	w.Add(orphan)
	w.Flush(ctx)

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM collections WHERE play_id = $1`, playID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored %d collections, want 1", n)
	}
	if got := testutil.ToFloat64(m.BatchErrors); got != 1 {
		t.Errorf("batch errors = %v, want 1", got)
	}
}
