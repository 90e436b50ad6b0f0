package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
)

var errNotRegistered = errors.New("register a nickname and email first (hcongame register)")

func newLevelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Play the challenge levels",
	}

	cmd.AddCommand(newLevelsListCmd())
	cmd.AddCommand(newLevelsStoryCmd())
	cmd.AddCommand(newLevelsAskCmd())
	cmd.AddCommand(newLevelsVerifyCmd())

	return cmd
}

// levelSession is a bootstrapped level controller for the resolved token
type levelSession struct {
	ctrl    *levels.Controller
	profile *model.Profile
}

func openLevels(ctx context.Context) (*levelSession, error) {
	token := cfg.SessionToken()
	if token == "" {
		return nil, model.ErrNoSession
	}

	logger := cfg.Logger()
	profiles := profile.NewRepository(newStore(logger))
	p, err := profiles.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !p.IsVerified() {
		return nil, errNotRegistered
	}

	ctrl := levels.NewController(token, newChallenge(logger), profiles, levels.DefaultConfig(), logger)
	if err := ctrl.Bootstrap(ctx, p); err != nil {
		return nil, err
	}
	return &levelSession{ctrl: ctrl, profile: p}, nil
}

// selectLevel parses arg and selects that level
func (s *levelSession) selectLevel(ctx context.Context, arg string) (int, error) {
	level, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidLevel, arg)
	}
	if err := s.ctrl.Select(ctx, level); err != nil && !errors.Is(err, model.ErrStaleResult) {
		return 0, err
	}
	return level, nil
}

func newLevelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the levels and which are unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLevels(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(LevelListFromView(s.ctrl.View()))
			return nil
		},
	}
}

func newLevelsStoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "story <level>",
		Short: "Show the story of a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLevels(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := s.selectLevel(cmd.Context(), args[0]); err != nil {
				return err
			}

			view := s.ctrl.View()
			if view.Story == nil {
				return fmt.Errorf("level %d has no cached story", view.Selected)
			}

			out := NewOutput(cfg.Output)
			out.Print(StoryFromModel(view.Story))
			return nil
		},
	}
}

func newLevelsAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <level> <prompt...>",
		Short: "Send a prompt to a level",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLevels(cmd.Context())
			if err != nil {
				return err
			}
			level, err := s.selectLevel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			reply, err := s.ctrl.SubmitPrompt(cmd.Context(), level, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*reply)
			return nil
		},
	}
}

func newLevelsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <level> <secret>",
		Short: "Submit the secret word of a level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLevels(cmd.Context())
			if err != nil {
				return err
			}
			level, err := s.selectLevel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			verdict, err := s.ctrl.SubmitSecret(cmd.Context(), level, args[1], s.profile.Nickname)
			if err != nil {
				return err
			}

			view := s.ctrl.View()
			out := NewOutput(cfg.Output)
			out.Print(VerifyResult{
				Level:    level,
				Correct:  verdict.Correct,
				Message:  view.Message,
				Unlocked: view.Unlocked,
			})
			return nil
		},
	}
}
