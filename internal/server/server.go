package server

import (
	"context"
	"html/template"
	"lunastars/internal/accounts"
	"lunastars/internal/config"
	"lunastars/internal/db"
	"lunastars/internal/metrics"
	"lunastars/internal/plays"
	"lunastars/internal/reveal"
	"lunastars/internal/session"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"
)

// GameID names this game in a user's high scores.
const GameID = "luna-stars"

type Server struct {
	Plays    *plays.Store
	Tmpl     *template.Template
	Config   config.Config
	Letter   reveal.Letter
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Accounts accounts.Store
	DB       *db.DB            // nil if no database configured
	Writer   *collectionWriter // nil if no database configured
}

// New wires a server around cfg. database may be nil. Plays run until ctx is
// cancelled.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, tmpl *template.Template, database *db.DB) *Server {
	s := &Server{
		Tmpl:     tmpl,
		Config:   cfg,
		Letter:   reveal.NewLetter(cfg.Recipient, cfg.Sender, cfg.Signature),
		Logger:   logger.Named("server"),
		Metrics:  metrics.New(),
		Accounts: accounts.NewMemoryStore(),
	}
	if database != nil {
		s.DB = database
		s.Accounts = database
		s.Writer = newCollectionWriter(database, cfg.BatchSize*4, s.Logger, s.Metrics)
	}
	s.Plays = plays.NewStore(ctx, SessionConfig(cfg), logger)
	s.Plays.Setup = s.setupPlay
	s.Plays.Teardown = func(*plays.Play) { s.Metrics.LivePlays.Dec() }
	return s
}

// SessionConfig maps the app settings onto the game rules.
func SessionConfig(cfg config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.Duration = cfg.GameDuration
	sc.WinThreshold = cfg.WinThreshold
	sc.BatchSize = cfg.BatchSize
	sc.Motion = cfg.Motion
	return sc
}

// ParseTemplates loads the page templates from dir.
func ParseTemplates(dir string) (*template.Template, error) {
	return template.ParseFiles(
		filepath.Join(dir, "home.html"),
		filepath.Join(dir, "play.html"),
	)
}

func (s *Server) Routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /play/new", s.handleNewPlay)
	mux.HandleFunc("GET /play", s.handlePlay)
	mux.HandleFunc("GET /play/ws", s.handleWebSocket)
	mux.HandleFunc("GET /play/events", s.handleEvents)
	mux.HandleFunc("GET /play/letter", s.handleLetterStream)
	mux.HandleFunc("GET /play/letter.txt", s.handleLetterDownload)
	mux.HandleFunc("GET /play/starfield", s.handleStarfield)
	mux.HandleFunc("POST /api/session", s.handleSignIn)
	mux.HandleFunc("DELETE /api/session", s.handleSignOut)
	mux.HandleFunc("POST /api/signup", s.handleSignUp)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("PATCH /api/profile", s.handleUpdateProfile)
	mux.HandleFunc("GET /api/username", s.handleUsername)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/plays/{id}", s.handlePlayRecord)
	mux.HandleFunc("GET /leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
