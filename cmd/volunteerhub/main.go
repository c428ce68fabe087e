// Command volunteerhub runs the API server and its operator tasks.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"volunteerhub/internal/platform/config"
	"volunteerhub/internal/platform/logger"
)

var (
	envFile string
	cfg     *config.Config
	log     *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "volunteerhub",
		Short:         "VolunteerHub API server and operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}
			log = logger.New(cfg.LogLevel)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(promoteCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(issueTokenCmd())
	rootCmd.AddCommand(revokeTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		if log == nil {
			log = logger.New("info")
		}
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var errNeedsPostgres = errors.New("DATABASE_URL must be set: this command changes persistent data")
