package main

import (
	"context"
	"fmt"
	"io"

	"github.com/heimdex/heimdex-timeline/internal/api"
	"github.com/heimdex/heimdex-timeline/internal/db"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd(configPath *string) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change persisted settings",
	}

	// withRepo opens the configured database for the duration of fn.
	withRepo := func(fn func(repo settings.Repository) error) error {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		database, err := db.New(cfg.DBPath(), logging.Discard())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		return fn(settings.NewRepository(database.Conn()))
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(func(repo settings.Repository) error {
				return listSettings(cmd.Context(), cmd.OutOrStdout(), repo, showSecrets)
			})
		},
	}
	listCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the auth token in full")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(repo settings.Repository) error {
				v, err := repo.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if v == "" {
					return fmt.Errorf("%s is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(repo settings.Repository) error {
				return repo.Set(cmd.Context(), args[0], args[1])
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(repo settings.Repository) error {
				return repo.Delete(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd, setCmd, deleteCmd)
	return cmd
}

func listSettings(ctx context.Context, w io.Writer, repo settings.Repository, showSecrets bool) error {
	values, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, k := range settings.Keys(values) {
		v := values[k]
		if k == api.AuthTokenKey && !showSecrets {
			v = logging.SanitizeToken(v)
		}
		fmt.Fprintf(w, "%s=%s\n", k, v)
	}
	return nil
}
