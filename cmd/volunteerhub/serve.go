package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"volunteerhub/internal/app"
	"volunteerhub/internal/platform/httpserver"
	"volunteerhub/internal/platform/postgres"
	"volunteerhub/internal/seed"
)

func serveCmd() *cobra.Command {
	var (
		migrate  bool
		seedFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate, seedFile)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before serving")
	cmd.Flags().StringVar(&seedFile, "seed", "", "Seed file replayed at startup")
	return cmd
}

func serve(ctx context.Context, migrate bool, seedFile string) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("closing resources", "error", err)
		}
	}()

	if migrate && a.DB != nil {
		if err := postgres.Migrate(ctx, a.DB); err != nil {
			return err
		}
	}
	if seedFile != "" {
		if err := applySeed(ctx, a, seedFile); err != nil {
			return err
		}
	}
	if err := a.EnsureTopic(ctx); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server, a.Router())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting volunteerhub", "addr", cfg.Server.Addr, "env", cfg.Environment, "postgres", a.DB != nil, "redis", a.Redis != nil)
		err := httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
		log.Info("http server stopped")
		return err
	})
	if a.Relay != nil {
		g.Go(func() error {
			log.Info("starting audit relay", "topic", cfg.Audit.Topic)
			if err := a.Relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func applySeed(ctx context.Context, a *app.App, path string) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	seeder := &seed.Seeder{
		Resolver:      a.Resolver,
		Users:         a.Users,
		Opportunities: a.Opportunities,
		Enrollments:   a.Enrollments,
	}
	sum, err := seeder.Apply(ctx, f)
	if err != nil {
		return err
	}
	log.Info("seed applied",
		"file", path,
		"admins", sum.Admins,
		"volunteers", sum.Volunteers,
		"profiles", sum.Profiles,
		"opportunities", sum.Opportunities,
		"enrollments", sum.Enrollments,
	)
	return nil
}
