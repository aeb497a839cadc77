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

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/mockapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("tada-mockapi", pflag.ContinueOnError)
	addr := flagSet.String("addr", "127.0.0.1:8000", "listen address")
	email := flagSet.String("email", mockapi.DefaultEmail, "login email of the seeded user")
	password := flagSet.String("password", mockapi.DefaultPassword, "login password of the seeded user")
	secret := flagSet.String("secret", os.Getenv("TADA_MOCK_SECRET"), "HS256 signing secret")
	ttl := flagSet.Duration("token-ttl", 24*time.Hour, "access token lifetime")
	seed := flagSet.Bool("seed", true, "start with a sample todo")
	shutdownTimeout := flagSet.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown limit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	mock := mockapi.New(mockapi.Config{
		Secret:   *secret,
		TokenTTL: *ttl,
		Users:    []mockapi.User{{UUID: mockapi.DefaultUserUUID, Email: *email, Password: *password}},
		Seed:     *seed,
	}, logger)

	server := &http.Server{
		Addr:              *addr,
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", *addr).
			Str("email", *email).
			Msg("setting up mock api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info().Msg("shutting down mock api server")
	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("shut down mock api server")
	return nil
}
