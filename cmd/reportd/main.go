// Reportd serves the QA weekly status reporting API.
//
// It stores weekly reports in MongoDB, exchanges them with slide decks,
// and exports XLSX workbooks.
//
// Configuration comes from a YAML file and environment variables. See
// internal/config for the mapping.
//
// Usage:
//
//	# Start with defaults
//	AUTH_TOKEN_SECRET=... reportd
//
//	# Configure via file and environment
//	SERVER_PORT=9000 reportd -config /etc/reportd/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reportd/internal/authn"
	"github.com/fyrsmithlabs/reportd/internal/config"
	httpapi "github.com/fyrsmithlabs/reportd/internal/http"
	"github.com/fyrsmithlabs/reportd/internal/logging"
	"github.com/fyrsmithlabs/reportd/internal/mail"
	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  reportd            Start the reportd server\n")
			fmt.Fprintf(os.Stderr, "  reportd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("reportd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the server and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Starts the MongoDB connection loop in the background
//  4. Wires auth, mail and the project registry
//  5. Starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting reportd",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Store.Database),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	st := store.New(&store.Config{
		URI:            cfg.Store.URI.Value(),
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout.Duration(),
		RetryInterval:  cfg.Store.RetryInterval.Duration(),
	}, logger)

	// The API answers 503 for storage-backed routes until this
	// succeeds, so the server starts without waiting for MongoDB.
	go func() {
		if err := st.Connect(ctx); err != nil && ctx.Err() == nil {
			logger.Error("store connect loop ended", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := st.Close(shutdownCtx); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	issuer := authn.NewTokenIssuer(cfg.Auth.TokenSecret.Value())

	var mailer authn.Mailer
	if cfg.Mail.Host != "" {
		sender, err := mail.NewSender(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password.Value(),
			From:     cfg.Mail.From,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mail sender: %w", err)
		}
		mailer = sender
	}

	projects := project.NewRegistry(project.Defaults())

	auth, err := authn.NewService(st.Users(), st.ResetTokens(), issuer, mailer, cfg.Server.BaseURL, projects, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	google := authn.NewGoogleFlow(authn.GoogleConfig{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret.Value(),
		RedirectURL:  cfg.Auth.GoogleRedirectURL,
	}, st.Users(), issuer, projects, logger)

	srv, err := httpapi.NewServer(&httpapi.Config{
		Port:             cfg.Server.Port,
		ExposeResetLinks: cfg.Auth.ExposeResetLinks,
	}, st, auth, issuer, google, projects, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/api/health", cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
		zap.Bool("google_signin", google != nil),
		zap.Bool("mail_enabled", mailer != nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
