package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/internal/service"
	"github.com/noah-isme/sma-import-api/pkg/config"
)

type tokenOutput struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newTokenCmd() *cobra.Command {
	var (
		subject service.TokenSubject
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for calling the import API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return usageError("load config: %v", err)
			}
			if ttl <= 0 {
				ttl = cfg.JWT.AccessTokenTTL
			}
			auth := service.NewAuthService(nil, nil, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: ttl,
				Issuer:            cfg.JWT.Issuer,
				Audience:          cfg.JWT.Audience,
			})
			subject.Role = models.UserRole(strings.ToUpper(role))
			token, expires, err := auth.IssueAccessToken(subject)
			if err != nil {
				return classify(err)
			}
			return writeJSON(tokenOutput{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires})
		},
	}

	cmd.Flags().StringVar(&subject.Email, "email", "", "Operator email (required)")
	cmd.Flags().StringVar(&subject.FullName, "name", "", "Operator display name")
	cmd.Flags().StringVar(&subject.UserID, "user-id", "", "Operator user UUID")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
