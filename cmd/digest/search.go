package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/nhle/seminar-digest/internal/digest"
	"github.com/nhle/seminar-digest/internal/store"
)

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Print stored events whose start time contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args[0])
		},
	}

	cmd.Flags().String("db-path", "", "Event database path (env PATH_TO_DB)")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, query string) error {
	if err := a.cfg.ValidateStore(); err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(a.cfg.Store.Path, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := digest.New(digest.Deps{Store: st, Logger: a.logger}).Search(cmd.Context(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printf(out, "Found %d events containing '%s':\n", len(events), query)
	for _, e := range events {
		data, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return err
		}
		printf(out, "%s\n", data)
	}
	return nil
}
