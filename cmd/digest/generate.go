package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/seminar-digest/internal/digest"
	"github.com/nhle/seminar-digest/internal/render"
	"github.com/nhle/seminar-digest/internal/store"
)

func newGenerateCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate DATE",
		Short: "Render the events starting on DATE into an HTML announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args[0], output)
		},
	}

	cmd.Flags().String("db-path", "", "Event database path (env PATH_TO_DB)")
	cmd.Flags().StringP("template", "t", "", "HTML template (env TEMPLATE_PATH)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <output_dir>/DATE.html)")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, date, output string) error {
	cfg := a.cfg
	if err := cfg.ValidateStore(); err != nil {
		return err
	}
	if output == "" {
		output = defaultOutputPath(cfg.Render.OutputDir, date)
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	renderer := render.Renderer{
		StartMarker:    cfg.Render.StartMarker,
		EndMarker:      cfg.Render.EndMarker,
		SequenceMarker: cfg.Render.SequenceMarker,
		LegacyFallback: cfg.Render.LegacyFallback,
	}

	rep, closeRep := a.reporter()
	p := digest.New(digest.Deps{
		Store:    st,
		Renderer: renderer,
		Reporter: rep,
		Logger:   a.logger,
	})

	n, err := p.Generate(cmd.Context(), date, cfg.Render.TemplatePath, output)
	closeRep()

	out := cmd.OutOrStdout()
	if errors.Is(err, digest.ErrNoEvents) {
		printf(out, "No events found for %s\n", date)
		return nil
	}
	if err != nil {
		return err
	}

	printf(out, "Wrote %d events to %s\n", n, output)
	return nil
}

func defaultOutputPath(dir, date string) string {
	if dir == "" {
		dir = "./out"
	}
	return filepath.Join(dir, date+".html")
}
