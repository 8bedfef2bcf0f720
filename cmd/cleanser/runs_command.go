package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cleanser/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the run registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			st, err := openStore(cmd, ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []store.Run{}
				}
				return writeJSON(cmd, runs)
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}

func newCountsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show row counts of the clean and reject tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			counts, err := st.Counts(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, counts)
			}
			renderCounts(cmd.OutOrStdout(), counts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print counts as JSON")
	return cmd
}

func openStore(cmd *cobra.Command, ctx *commandContext) (*store.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Redacted(), err)
	}
	return st, nil
}
