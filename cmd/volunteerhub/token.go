package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"volunteerhub/internal/identity"
	"volunteerhub/internal/identity/revocation"
	platformredis "volunteerhub/internal/platform/redis"
	id "volunteerhub/pkg/domain"
)

// issueTokenCmd mints a bearer token signed with the server key, for local
// development and smoke tests.
func issueTokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Mint a signed bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.IsProduction() {
				return errors.New("issue-token is disabled in production")
			}
			userID, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.DevTokenTTL
			}
			tokens := identity.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, jti, err := tokens.IssueToken(userID.String(), email, ttl)
			if err != nil {
				return err
			}
			log.Info("token issued", "user_id", userID, "jti", jti, "ttl", ttl)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_DEV_TOKEN_TTL)")
	return cmd
}

func revokeTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "revoke-token <jti>",
		Short: "Add a token ID to the shared revocation list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := platformredis.New(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("REDIS_URL must be set: the in-memory revocation list is per process")
			}
			defer client.Close()

			if err := revocation.NewRedisTRL(client.Client).RevokeToken(ctx, args[0], ttl); err != nil {
				return err
			}
			log.Info("token revoked", "jti", args[0], "ttl", ttl)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "How long to keep the revocation; use at least the token's remaining lifetime")
	return cmd
}
