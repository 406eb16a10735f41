package server

import (
	"context"
	"errors"
	"fmt"
	"lunastars/internal/config"
	"lunastars/internal/db"
	"lunastars/internal/plays"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run serves the game until ctx is cancelled. A database is used when
// cfg.DatabaseURL is set and reachable; otherwise the game runs without one.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	tmpl, err := ParseTemplates("templates")
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Warn("database unavailable, running without it", zap.Error(err))
			database = nil
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				logger.Error("migration failed", zap.Error(err))
			}
		}
	} else {
		logger.Info("DATABASE_URL not set, running without database")
	}

	g, ctx := errgroup.WithContext(ctx)
	srv := New(ctx, cfg, logger, tmpl, database)
	defer srv.Plays.Close()

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           srv.Routes("static"),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("url", "http://localhost:"+cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		srv.Plays.RunSweeper(ctx, plays.DefaultSweepInterval, plays.DefaultIdleTTL)
		return nil
	})
	if srv.Writer != nil {
		g.Go(func() error {
			return srv.Writer.Run(ctx)
		})
	}

	return g.Wait()
}
