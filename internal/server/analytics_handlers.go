package server

import (
	"lunastars/internal/analytics"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLeaderboardSize = 10

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Leaderboard requires a database connection", http.StatusServiceUnavailable)
		return
	}

	category := r.URL.Query().Get("cat")
	if category == "" {
		category = "score"
	}
	limit := defaultLeaderboardSize
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	q := analytics.NewQueries(s.DB)
	entries, err := q.GetLeaderboard(category, limit)
	if err != nil {
		s.Logger.Warn("leaderboard", zap.String("cat", category), zap.Error(err))
		http.Error(w, "Error loading leaderboard", http.StatusBadRequest)
		return
	}
	if entries == nil {
		entries = []analytics.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handlePlayRecord returns one stored attempt of the browser's player.
func (s *Server) handlePlayRecord(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Play history requires a database connection", http.StatusServiceUnavailable)
		return
	}
	cookie, err := r.Cookie(playerCookie)
	id := r.PathValue("id")
	if _, perr := uuid.Parse(id); err != nil || perr != nil {
		http.Error(w, "Play not found", http.StatusNotFound)
		return
	}

	rec, err := s.DB.GetPlay(id)
	if err != nil {
		s.Logger.Error("get play", zap.String("play", id), zap.Error(err))
		http.Error(w, "Error loading play", http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.PlayerID != cookie.Value {
		http.Error(w, "Play not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Stats require a database connection", http.StatusServiceUnavailable)
		return
	}
	cookie, err := r.Cookie(playerCookie)
	if err != nil {
		http.Error(w, "No plays yet", http.StatusNotFound)
		return
	}

	q := analytics.NewQueries(s.DB)
	stats, err := q.GetPlayerLifetimeStats(cookie.Value)
	if err != nil {
		s.Logger.Debug("player stats", zap.Error(err))
		http.Error(w, "No plays yet", http.StatusNotFound)
		return
	}
	badges, err := s.DB.GetPlayerBadges(cookie.Value)
	if err != nil {
		s.Logger.Error("player badges", zap.Error(err))
	}

	earned := make([]analytics.Badge, 0, len(badges))
	for _, id := range badges {
		if b, ok := analytics.AllBadges[analytics.BadgeID(id)]; ok {
			earned = append(earned, b)
		}
	}
	stats.Badges = earned
	writeJSON(w, http.StatusOK, stats)
}
