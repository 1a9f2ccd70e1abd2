package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainuser "github.com/yungbote/coursecraft-backend/internal/domain/user"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenName   string
	tokenRole   string
)

// tokenCmd mints an access token for local testing. With --email it first
// creates the user.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer log.Sync()

		svc, err := db.NewService(log, cfg.Database)
		if err != nil {
			return err
		}
		defer svc.Close()

		users := userrepo.NewUserRepo(svc.DB(), log)
		auth := services.NewAuthService(log, users, cfg.Auth.JWTSecretKey, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)

		var userID uuid.UUID
		switch {
		case strings.TrimSpace(tokenUserID) != "":
			userID, err = uuid.Parse(strings.TrimSpace(tokenUserID))
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}
			u, err := users.GetByID(cmd.Context(), nil, userID)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("user %s not found", userID)
			}
		case strings.TrimSpace(tokenEmail) != "":
			role, ok := domainuser.ParseRole(tokenRole)
			if !ok {
				return fmt.Errorf("invalid --role %q", tokenRole)
			}
			u, err := users.EnsureByEmail(cmd.Context(), nil, &types.User{
				Email:    tokenEmail,
				FullName: strings.TrimSpace(tokenName),
				Role:     role,
			})
			if err != nil {
				return err
			}
			userID = u.ID
		default:
			return fmt.Errorf("one of --user-id or --email is required")
		}

		token, err := auth.IssueAccessToken(userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user_id=%s\naccess_token=%s\n", userID, token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "existing user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "find or create the user with this email")
	tokenCmd.Flags().StringVar(&tokenName, "name", "Local User", "full name for a created user")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "TUTOR", "role for a created user")
	rootCmd.AddCommand(tokenCmd)
}
