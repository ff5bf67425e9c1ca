package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reminders/internal/auth"
	"reminders/internal/database"
	"reminders/internal/handlers"
	"reminders/internal/server"
	"reminders/internal/services"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth: %w (set JWT_SECRET)", err)
	}
	creds, err := auth.NewCredentials(cfg.Auth.Username, cfg.Auth.PasswordHash, cfg.Auth.Password)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if !creds.Enabled() {
		log.Warn().Msg("no password configured (AUTH_PASSWORD_HASH or AUTH_PASSWORD); every login will be refused")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()
	store := database.NewReminderStore(db, cfg.Database.OpTimeout)

	h := handlers.New(handlers.Options{
		Store:       store,
		Tokens:      tokens,
		Credentials: creds,
		Location:    loc,
		Driver:      cfg.Database.Driver,
		LoginRate:   cfg.Auth.LoginRate,
		LoginBurst:  cfg.Auth.LoginBurst,
		Log:         log,
	})
	router, err := server.NewRouter(cfg.Server, h, tokens, log)
	if err != nil {
		return err
	}

	worker := services.NewReminderWorker(store, cfg.Scheduler.Interval, log)
	if cfg.Scheduler.Enabled {
		if err := worker.Start(); err != nil {
			return err
		}
	} else {
		log.Info().Msg("scheduler disabled; reminders will only fire via trigger-once")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown did not complete")
	}
	// Lets a cycle in progress finish before the database is closed
	if err := worker.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler did not stop in time")
	}
	return serveErr
}
