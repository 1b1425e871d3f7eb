package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/aleator-backend/internal/app"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/pkg/pointers"
	"github.com/yungbote/aleator-backend/internal/seed"
	"github.com/yungbote/aleator-backend/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aleator",
		Short:         "Aleator decision engine backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.Options{SkipHTTP: true, Migrate: pointers.Ptr(true)})
			if err != nil {
				return err
			}
			defer a.Close()
			a.Log.Info("Migrations applied", "driver", a.DB.Driver())
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var (
		file string
		user string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create decisions for a user from a YAML file",
		Long: `Create decisions for a user from a YAML fixture file.
Without --file the bundled sample decisions are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			inputs, err := loadSeed(file)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), app.Options{SkipHTTP: true})
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := seed.Apply(cmd.Context(), a.Log, a.Services.Decisions, owner, inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d decisions for %s\n", n, owner)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture file (defaults to the bundled sample)")
	cmd.Flags().StringVar(&user, "user", "", "owner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func loadSeed(path string) ([]services.CreateDecisionInput, error) {
	if path == "" {
		return seed.Sample()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return seed.Parse(f)
}

func newTokenCmd() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			auth := services.NewAuthService(logger.Nop(), cfg.JWTSecretKey)
			tok, err := auth.IssueToken(owner, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "subject user id")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
