package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

func newRegisterCmd() *cobra.Command {
	var nickname, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the nickname and email of the session's player",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.SessionToken() == "" {
				return model.ErrNoSession
			}
			if _, _, err := verification.ValidateRegistration(nickname, email); err != nil {
				return err
			}

			req := map[string]string{
				"nickname": nickname,
				"email":    email,
			}
			var result Player

			if err := client.Post(cmd.Context(), "/api/v1/players/register", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Nickname (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	_ = cmd.MarkFlagRequired("nickname")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newStatusCmd() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the verification state of the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.SessionToken() == "" {
				return model.ErrNoSession
			}

			var result Status
			path := "/api/v1/players/me/status?view=" + url.QueryEscape(view)
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", string(verification.ViewLevels), "Page the check is made for")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the challenge API who the session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := cfg.SessionToken()
			if token == "" {
				return model.ErrNoSession
			}

			status, err := newChallenge(cfg.Logger()).Auth(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("auth check failed: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(*status)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ForgetToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}
