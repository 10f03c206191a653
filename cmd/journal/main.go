package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/defzzd/learning-journal/internal/auth"
	"github.com/defzzd/learning-journal/internal/config"
	"github.com/defzzd/learning-journal/internal/database"
	"github.com/defzzd/learning-journal/internal/logging"
	"github.com/defzzd/learning-journal/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	addr      string
	dbPath    string
	logFile   string
	verbosity int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Learning Journal - single-user journaling server",
		Long:  `Learning Journal serves a public reverse-chronological entry listing; an authenticated admin creates and edits entries.`,
		RunE:  run,
	}

	// Flags override the JOURNAL_* environment variables
	rootCmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address (or set JOURNAL_ADDR)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (or set JOURNAL_DB)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "rotating log file path (or set JOURNAL_LOG_FILE)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("journal %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for JOURNAL_ADMIN_PASSWORD_HASH",
		RunE:  runHashPassword,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if addr != "" {
		cfg.Addr = addr
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	logging.Apply(verbosity, cfg.LogFile)

	log.Info().
		Str("version", version).
		Str("addr", cfg.Addr).
		Str("database", cfg.DatabasePath).
		Msg("Starting Learning Journal")

	// Credentials at rest are hash-only. A configured plaintext password is
	// hashed once here and discarded.
	params := auth.HashParams{
		Iterations: cfg.HashIterations,
		SaltLength: cfg.HashSaltLength,
	}
	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" {
		if cfg.UsingDefaultPassword() {
			log.Warn().Msg("Default admin credentials in use. Set JOURNAL_ADMIN_PASSWORD_HASH before deploying.")
		}
		var err error
		passwordHash, err = auth.HashPassword(cfg.AdminPassword, params)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash admin password")
		}
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		var err error
		secret, err = auth.RandomSecret()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate session secret")
		}
		log.Warn().Msg("JOURNAL_SESSION_SECRET not set; sessions will not survive a restart")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	gate := auth.NewGate(cfg.AdminUsername, passwordHash)
	sessions := auth.NewSessionManager(secret, cfg.SessionTTL)
	server := web.NewServer(db, gate, sessions, cfg.Addr)

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Learning Journal stopped")
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	cfg := config.Load()
	hash, err := auth.HashPassword(string(password), auth.HashParams{
		Iterations: cfg.HashIterations,
		SaltLength: cfg.HashSaltLength,
	})
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}
