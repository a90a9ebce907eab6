package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/credential"
	"github.com/nhle/seminar-digest/internal/digest"
	"github.com/nhle/seminar-digest/internal/logging"
	"github.com/nhle/seminar-digest/internal/model"
	"github.com/nhle/seminar-digest/internal/ui/progress"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	noProgress bool

	cfg    *model.AppConfig
	logger *zap.Logger
}

// lookupSecret reads a secret from the system keyring.
var lookupSecret = credential.Lookup

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "digest",
		Short:         "Collect seminar invitations from email into an HTML digest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ./email_digest.yaml or ~/.config/email_digest/)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&a.noProgress, "no-progress", false, "Disable the progress display")

	cmd.AddCommand(newQueryCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newLoginCmd(a))

	return cmd
}

// load resolves the configuration for cmd and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := model.LoadConfig(model.LoadOptions{
		Path:  a.configPath,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return err
	}

	logger := logging.MustNew(cfg.Log.Level)
	if a.progressEnabled() {
		// The spinner owns stderr; only errors get through.
		logger = logging.Quiet(logger)
	}

	fillSecrets(cfg, logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// fillSecrets takes secrets not set by flag, environment or config file
// from the keyring.
func fillSecrets(cfg *model.AppConfig, logger *zap.Logger) {
	targets := []struct {
		key string
		dst *string
	}{
		{credential.KeyMailPassword, &cfg.Mail.Password},
		{credential.KeyAPIKey, &cfg.Generation.APIKey},
	}

	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		v, ok, err := lookupSecret(t.key)
		if err != nil {
			logger.Debug("keyring unavailable", zap.String("key", t.key), zap.Error(err))
			continue
		}
		if ok {
			*t.dst = v
		}
	}
}

func (a *app) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// reporter returns the progress reporter for this invocation and a
// function that must be called once the run is over.
func (a *app) reporter() (digest.Reporter, func()) {
	if !a.progressEnabled() {
		return digest.NewLogReporter(a.logger), func() {}
	}

	r := progress.New(os.Stderr)
	return r, func() {
		if err := r.Close(); err != nil {
			a.logger.Error("progress display", zap.Error(err))
		}
	}
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
