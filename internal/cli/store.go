package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidwalker2235/hcongame/internal/model"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read or change data through the session proxy",
		Long: `Runs key-path store operations through the server's session proxy.

Paths look like users/<token>/nickname. The proxy lets a player change only
their own subtree; the users listing and the ranking are read-only.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "read <path>",
		Short: "Read the value at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := newStore(cfg.Logger()).Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(StoreValue{Path: args[0], Value: value})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "write <path> <json>",
		Short: "Replace the value at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseJSONArg(args[1])
			if err != nil {
				return err
			}
			if err := newStore(cfg.Logger()).Write(cmd.Context(), args[0], value); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Wrote " + args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <path> <json-object>",
		Short: "Merge fields into the object at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseJSONArg(args[1])
			if err != nil {
				return err
			}
			fields, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: update data must be a JSON object", model.ErrInvalidRequest)
			}
			if err := newStore(cfg.Logger()).Update(cmd.Context(), args[0], fields); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Updated " + args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <path>",
		Short: "Delete the value at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newStore(cfg.Logger()).Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Removed " + args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "push <path> <json>",
		Short: "Add a value under a generated key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseJSONArg(args[1])
			if err != nil {
				return err
			}
			key, err := newStore(cfg.Logger()).Push(cmd.Context(), args[0], value)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(PushResult{Path: args[0], Key: key})
			return nil
		},
	})

	return cmd
}

func parseJSONArg(arg string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(arg), &value); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", model.ErrInvalidRequest, err)
	}
	return value, nil
}
