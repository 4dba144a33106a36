package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/librarian-backend/internal/loans"
	"github.com/angelmondragon/librarian-backend/internal/users"
	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
	"github.com/angelmondragon/librarian-backend/pkg/migrate"
	"github.com/angelmondragon/librarian-backend/pkg/security"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Administrative tooling for the library backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd(), seedAdminCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context) (*config.Config, *db.Client, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "librarian",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, client, logg, nil
}

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, _, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			sqlDB, err := client.DB().DB()
			if err != nil {
				return fmt.Errorf("unwrapping sql database: %w", err)
			}
			if err := migrate.Run(ctx, sqlDB, dir, "up"); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", migrate.DefaultDir, "goose migrations directory")
	return cmd
}

func seedAdminCmd() *cobra.Command {
	var email, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin user with a generated temporary password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, client, _, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			repo := users.NewRepository(client.DB())
			if existing, err := repo.FindByEmail(ctx, email); err == nil && existing != nil {
				return fmt.Errorf("user %s already exists", email)
			}

			tempPassword, err := security.GenerateTempPassword(16)
			if err != nil {
				return fmt.Errorf("generating password: %w", err)
			}
			hash, err := security.HashPassword(tempPassword, cfg.Password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			user, err := repo.Create(ctx, users.CreateUserDTO{
				Email:        email,
				PasswordHash: hash,
				FirstName:    firstName,
				LastName:     lastName,
				Role:         enums.UserRoleAdmin,
			})
			if err != nil {
				return fmt.Errorf("creating admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\ntemporary password: %s\n", user.Email, user.ID, tempPassword)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&firstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "User", "last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print circulation totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, _, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			stats, err := loans.NewRepository(client.DB()).Stats(ctx, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("loading stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total loans:     %d\n", stats.TotalLoans)
			fmt.Fprintf(out, "open loans:      %d\n", stats.OpenLoans)
			fmt.Fprintf(out, "overdue loans:   %d\n", stats.OverdueLoans)
			fmt.Fprintf(out, "returned loans:  %d\n", stats.ReturnedLoans)
			fmt.Fprintf(out, "lost loans:      %d\n", stats.LostLoans)
			fmt.Fprintf(out, "issued today:    %d\n", stats.IssuedToday)
			fmt.Fprintf(out, "returned today:  %d\n", stats.ReturnedToday)
			fmt.Fprintf(out, "fines assessed:  %s\n", stats.FinesAssessed.StringFixed(2))
			return nil
		},
	}
}
