package db

import (
	"errors"
	"lunastars/internal/accounts"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM player_badges")
		database.conn.Exec("DELETE FROM collections")
		database.conn.Exec("DELETE FROM plays")
		database.conn.Exec("DELETE FROM players")
		database.conn.Exec("DELETE FROM devices")
		database.conn.Exec("DELETE FROM users")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// migrations must be re-runnable
	if err := database.Migrate(); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}

	tables := []string{"players", "users", "devices", "plays", "collections", "player_badges"}
	for _, table := range tables {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestUpsertPlayer(t *testing.T) {
	database := getTestDB(t)

	id := "550e8400-e29b-41d4-a716-446655440000"
	if err := database.UpsertPlayer(id, "guest"); err != nil {
		t.Fatalf("UpsertPlayer() error: %v", err)
	}
	if err := database.UpsertPlayer(id, "luna_player"); err != nil {
		t.Fatalf("UpsertPlayer() update error: %v", err)
	}

	p, err := database.GetPlayer(id)
	if err != nil {
		t.Fatalf("GetPlayer() error: %v", err)
	}
	if p.Name != "luna_player" {
		t.Errorf("name = %q, want %q", p.Name, "luna_player")
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	database := getTestDB(t)

	if _, err := database.GetPlayer("00000000-0000-0000-0000-000000000000"); err == nil {
		t.Error("GetPlayer() should return error for nonexistent player")
	}
}

func TestCreateAndEndPlay(t *testing.T) {
	database := getTestDB(t)

	playerID := "550e8400-e29b-41d4-a716-446655440001"
	database.UpsertPlayer(playerID, "guest")

	started := time.Now().Add(-20 * time.Second)
	playID, err := database.CreatePlay(playerID, 1, 45, 15, started)
	if err != nil {
		t.Fatalf("CreatePlay() error: %v", err)
	}
	if playID == "" {
		t.Fatal("CreatePlay() returned empty ID")
	}

	end := PlayEnd{Outcome: "completed", Score: 10, TimeLeft: 25, EndedAt: time.Now()}
	if err := database.EndPlay(playID, end); err != nil {
		t.Fatalf("EndPlay() error: %v", err)
	}
	if err := database.EndPlay(playID, end); err == nil {
		t.Error("EndPlay() twice should fail")
	}

	p, err := database.GetPlay(playID)
	if err != nil {
		t.Fatalf("GetPlay() error: %v", err)
	}
	if p == nil {
		t.Fatal("GetPlay() = nil, want the ended play")
	}
	if p.Outcome == nil || *p.Outcome != "completed" {
		t.Errorf("outcome = %v, want completed", p.Outcome)
	}
	if p.Score != 10 {
		t.Errorf("score = %d, want 10", p.Score)
	}
	if p.EndedAt == nil {
		t.Error("ended_at should be set after EndPlay()")
	}
}

func TestRecordCollection(t *testing.T) {
	database := getTestDB(t)

	playerID := "550e8400-e29b-41d4-a716-446655440002"
	database.UpsertPlayer(playerID, "guest")
	playID, _ := database.CreatePlay(playerID, 1, 45, 15, time.Now())

	now := time.Now()
	err := database.RecordCollection(CollectionEvent{
		PlayID:      playID,
		PlayerID:    playerID,
		ItemID:      3,
		Category:    "music",
		ItemX:       120,
		ItemY:       340,
		SpawnedAt:   now.Add(-800 * time.Millisecond),
		CollectedAt: now,
		ReactionMs:  800,
	})
	if err != nil {
		t.Fatalf("RecordCollection() error: %v", err)
	}
}

func TestBatchRecordCollections(t *testing.T) {
	database := getTestDB(t)

	playerID := "550e8400-e29b-41d4-a716-446655440003"
	database.UpsertPlayer(playerID, "guest")
	playID, _ := database.CreatePlay(playerID, 1, 45, 15, time.Now())

	now := time.Now()
	events := []CollectionEvent{
		{PlayID: playID, PlayerID: playerID, ItemID: 0, Category: "soccer", ItemX: 50, ItemY: 60, SpawnedAt: now, CollectedAt: now, ReactionMs: 900},
		{PlayID: playID, PlayerID: playerID, ItemID: 1, Category: "nature", ItemX: 300, ItemY: 200, SpawnedAt: now, CollectedAt: now, ReactionMs: 1200},
		{PlayID: playID, PlayerID: playerID, ItemID: 2, Category: "comfort", ItemX: 500, ItemY: 350, SpawnedAt: now, CollectedAt: now, ReactionMs: 700},
	}
	if err := database.BatchRecordCollections(events); err != nil {
		t.Fatalf("BatchRecordCollections() error: %v", err)
	}

	var count int
	database.conn.QueryRow("SELECT COUNT(*) FROM collections WHERE play_id = $1", playID).Scan(&count)
	if count != 3 {
		t.Errorf("collection count = %d, want 3", count)
	}
}

func TestAwardBadge(t *testing.T) {
	database := getTestDB(t)

	playerID := "550e8400-e29b-41d4-a716-446655440004"
	database.UpsertPlayer(playerID, "guest")

	if err := database.AwardBadge(playerID, "stargazer", nil); err != nil {
		t.Fatalf("AwardBadge() error: %v", err)
	}
	if err := database.AwardBadge(playerID, "stargazer", nil); err != nil {
		t.Fatalf("AwardBadge() repeat error: %v", err)
	}
	badges, err := database.GetPlayerBadges(playerID)
	if err != nil {
		t.Fatalf("GetPlayerBadges() error: %v", err)
	}
	if len(badges) != 1 || badges[0] != "stargazer" {
		t.Errorf("badges = %v, want [stargazer]", badges)
	}
}

func TestUserStore(t *testing.T) {
	database := getTestDB(t)

	u, err := database.LoadUser("browser-1")
	if err != nil || u != nil {
		t.Fatalf("LoadUser() on empty = %v, %v; want nil, nil", u, err)
	}

	user := &accounts.User{
		ID:         "user-1",
		Username:   "nova_star",
		Email:      "nova@example.com",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		HighScores: map[string]int{"luna-stars": 11},
	}
	if err := database.SaveUser("browser-1", user); err != nil {
		t.Fatalf("SaveUser() error: %v", err)
	}

	got, err := database.LoadUser("browser-1")
	if err != nil {
		t.Fatalf("LoadUser() error: %v", err)
	}
	if got == nil || got.Username != "nova_star" || got.HighScores["luna-stars"] != 11 {
		t.Fatalf("LoadUser() = %+v", got)
	}

	other := &accounts.User{ID: "user-2", Username: "other", Email: "nova@example.com"}
	if err := database.SaveUser("browser-2", other); !errors.Is(err, accounts.ErrEmailInUse) {
		t.Errorf("SaveUser(duplicate email) error = %v, want %v", err, accounts.ErrEmailInUse)
	}

	if err := database.DeleteUser("browser-1"); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}
	if got, _ := database.LoadUser("browser-1"); got != nil {
		t.Error("LoadUser() after DeleteUser should be nil")
	}
}

func TestGetPlay_NotFound(t *testing.T) {
	database := getTestDB(t)
	p, err := database.GetPlay("00000000-0000-0000-0000-000000000000")
	if p != nil || err != nil {
		t.Errorf("GetPlay(unknown) = %v, %v; want nil, nil", p, err)
	}
}
