package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/auth"
	"github.com/iho/erpledger/internal/infrastructure/config"
	"github.com/iho/erpledger/internal/infrastructure/logger"
	"github.com/iho/erpledger/internal/infrastructure/postgres"
)

// migrator is swapped in tests.
var migrator = struct {
	up      func(databaseURL, path string, cfg *config.Config) error
	down    func(databaseURL, path string, steps int, cfg *config.Config) error
	version func(databaseURL, path string) (uint, bool, error)
}{
	up: func(databaseURL, path string, cfg *config.Config) error {
		return postgres.RunMigrations(databaseURL, path, cliLogger(cfg))
	},
	down: func(databaseURL, path string, steps int, cfg *config.Config) error {
		return postgres.RunMigrationsDown(databaseURL, path, steps, cliLogger(cfg))
	},
	version: postgres.MigrationVersion,
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, os.Stderr)
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	load := func() (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if databaseURL == "" {
			databaseURL = cfg.DatabaseURL
		}
		if path == "" {
			path = cfg.MigrationsPath
		}
		return cfg, nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL, defaults to DATABASE_URL")
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory, defaults to MIGRATIONS_PATH")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := migrator.up(databaseURL, path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			if err := migrator.down(databaseURL, path, steps, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(); err != nil {
				return err
			}
			version, dirty, err := migrator.version(databaseURL, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID, email, name, role, secret string
		ttl                               time.Duration
	)

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return errors.New("JWT_SECRET (or --secret) is required to issue tokens")
			}
			if ttl == 0 {
				ttl = 24 * time.Hour
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{
				ID:    userID,
				Email: email,
				Name:  name,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	issue.Flags().StringVar(&userID, "user", "", "User id recorded in audit logs")
	issue.Flags().StringVar(&email, "email", "", "User email")
	issue.Flags().StringVar(&name, "name", "", "Display name")
	issue.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: admin, operator or viewer")
	issue.Flags().StringVar(&secret, "secret", "", "Signing secret, defaults to JWT_SECRET")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to JWT_EXPIRATION")
	_ = issue.MarkFlagRequired("user")

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}
	cmd.AddCommand(issue)
	return cmd
}
