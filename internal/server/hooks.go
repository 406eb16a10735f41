package server

import (
	"context"
	"lunastars/internal/accounts"
	"lunastars/internal/analytics"
	"lunastars/internal/db"
	"lunastars/internal/items"
	"lunastars/internal/plays"
	"lunastars/internal/session"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// setupPlay connects a new play's session to metrics, the database and the
// player's account.
func (s *Server) setupPlay(p *plays.Play) {
	logger := s.Logger.With(zap.String("play", p.ID))
	s.Metrics.LivePlays.Inc()

	p.Controller.SetHooks(session.Hooks{
		OnStart: func(attempt int, at time.Time) {
			s.Metrics.PlaysStarted.Inc()
			logger.Debug("attempt started", zap.Int("attempt", attempt))
			if s.DB == nil {
				return
			}
			id, err := s.DB.CreatePlay(p.PlayerID, attempt, p.Controller.Config.Duration, p.Controller.Config.BatchSize, at)
			if err != nil {
				logger.Error("create play", zap.Error(err))
				p.SetRecordID("")
				return
			}
			p.SetRecordID(id)
		},
		OnCollect: func(item items.Item, score int, at time.Time) {
			s.Metrics.Collections.WithLabelValues(string(item.Category)).Inc()
			if s.Writer == nil || p.RecordID() == "" {
				return
			}
			s.Writer.Add(db.CollectionEvent{
				PlayID:      p.RecordID(),
				PlayerID:    p.PlayerID,
				ItemID:      item.ID,
				Category:    string(item.Category),
				ItemX:       int(item.X),
				ItemY:       int(item.Y),
				SpawnedAt:   item.SpawnedAt,
				CollectedAt: at,
				ReactionMs:  int(at.Sub(item.SpawnedAt).Milliseconds()),
			})
		},
		OnEnd: func(res session.Result) {
			s.Metrics.PlaysEnded.WithLabelValues(string(res.Outcome)).Inc()
			logger.Info("attempt ended",
				zap.String("outcome", string(res.Outcome)),
				zap.Int("score", res.Score),
				zap.Int("timeLeft", res.TimeLeft),
				zap.Int("attempt", res.Attempts))

			if res.Outcome == session.OutcomeCompleted {
				s.recordHighScore(p.PlayerID, res.Score, logger)
			}
			if s.DB != nil {
				if recordID := p.RecordID(); recordID != "" {
					go s.finishRecord(recordID, res, logger)
				}
			}
		},
	})
}

// finishRecord closes the play row once its collections are written, then
// awards badges.
func (s *Server) finishRecord(recordID string, res session.Result, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if s.Writer != nil {
		s.Writer.Flush(ctx)
	}

	err := s.DB.EndPlay(recordID, db.PlayEnd{
		Outcome:  string(res.Outcome),
		Score:    res.Score,
		TimeLeft: res.TimeLeft,
		EndedAt:  res.EndedAt,
	})
	if err != nil {
		logger.Error("end play", zap.Error(err))
		return
	}

	earned, err := analytics.NewQueries(s.DB).AwardPlayBadges(recordID)
	if err != nil {
		logger.Error("award badges", zap.Error(err))
		return
	}
	for _, b := range earned {
		logger.Info("badge earned", zap.String("badge", string(b.ID)))
	}
}

func (s *Server) recordHighScore(playerID string, score int, logger *zap.Logger) {
	sess := s.accountSession(playerID)
	if err := sess.Load(); err != nil {
		logger.Error("load account", zap.Error(err))
		return
	}
	if !sess.RecordScore(GameID, score) {
		return
	}
	if err := sess.Save(); err != nil {
		logger.Error("save high score", zap.Error(err))
	}
}

// accountSession opens the account session of a browser, keyed by its player id.
func (s *Server) accountSession(playerID string) *accounts.Session {
	return accounts.NewSession(s.Accounts, playerID, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}
