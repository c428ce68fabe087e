package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volunteerhub/internal/app"
	"volunteerhub/internal/platform/postgres"
	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.UsesPostgres() {
				return errNeedsPostgres
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			version, err := postgres.MigrationVersion(ctx, db)
			if err != nil {
				return err
			}
			log.Info("migrations applied", "version", version)
			return nil
		},
	}
}

// promoteCmd is the only way to grant ADMIN; the HTTP API never changes roles.
func promoteCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "promote <user-id>",
		Short: "Set a user's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.UsesPostgres() {
				return errNeedsPostgres
			}
			userID, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Users.SetRole(ctx, userID, r); err != nil {
				return fmt.Errorf("set role for %s (the user must have signed in once): %w", userID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", userID, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "Role to assign (ADMIN or VOLUNTEER)")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Replay a YAML seed file through the services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.UsesPostgres() {
				return fmt.Errorf("%w (use serve --seed for in-memory runs)", errNeedsPostgres)
			}
			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			return applySeed(ctx, a, args[0])
		},
	}
}
