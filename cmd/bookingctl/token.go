package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/service"
)

func newTokenCmd(e env) *cobra.Command {
	var (
		ownerID  string
		email    string
		fullName string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a business owner",
		Long: `Sign a bearer token with the configured JWT secret. Useful for local
development and for operators acting on behalf of an owner.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not configured")
			}
			auth := service.NewAuthService(service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: cfg.JWT.Expiration,
				Issuer:            cfg.Telemetry.ServiceName,
			})
			token, expiresAt, err := auth.IssueToken(ownerID, email, fullName, models.UserRole(role))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id the token is scoped to")
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&fullName, "name", "", "owner display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOwner), "OWNER or ADMIN")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
