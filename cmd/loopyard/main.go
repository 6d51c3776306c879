package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"loopyard/internal/app/favorites"
	"loopyard/internal/app/likes"
	"loopyard/internal/app/loops"
	"loopyard/internal/app/posts"
	"loopyard/internal/app/tracks"
	"loopyard/internal/app/users"
	"loopyard/internal/auth"
	"loopyard/internal/config"
	"loopyard/internal/httpapi"
	"loopyard/internal/logging"
	"loopyard/internal/store"
	"loopyard/internal/upload"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	st := store.New(db)
	media := upload.NewDiskStore(cfg.Media.Root)
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.AccessTTL, cfg.Security.RefreshTTL)

	server := httpapi.New(
		users.New(st, tokens, media),
		loops.New(st, media),
		tracks.New(st, media),
		posts.New(st, media),
		favorites.New(st),
		likes.New(st),
		tokens,
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Routes(cfg.CORS.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// openDatabase connects with retries so the service survives a database that
// comes up a few seconds later, as happens under docker compose.
func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= 10; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		log.Warn().Err(pingErr).Int("attempt", attempt).Msg("database not ready")
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("ping database: %w", pingErr)
}
