package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/digest"
	"github.com/nhle/seminar-digest/internal/email"
	"github.com/nhle/seminar-digest/internal/event"
	"github.com/nhle/seminar-digest/internal/generate"
	"github.com/nhle/seminar-digest/internal/model"
	"github.com/nhle/seminar-digest/internal/store"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch recent invitation emails and store their events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd)
		},
	}

	f := cmd.Flags()
	f.IntP("date", "d", 1, "Fetch emails received within this many days")
	f.String("api-key", "", "Completion API key (env DEEPSEEK_API_KEY)")
	f.String("mail-address", "", "Mailbox address (env MAIL_ADDRESS)")
	f.String("mail-pwd", "", "Mailbox password (env MAIL_PASSWORD)")
	f.String("mail-server", "", "IMAP server host")
	f.String("db-path", "", "Event database path (env PATH_TO_DB)")
	f.String("model", "", "Completion model")
	f.Int("max-tokens", 0, "Maximum tokens to generate")
	f.Float64("temperature", 0, "Sampling temperature")

	return cmd
}

func (a *app) runQuery(cmd *cobra.Command) error {
	cfg := a.cfg
	if err := cfg.ValidateQuery(); err != nil {
		return err
	}

	policy, err := event.ParsePolicy(cfg.Store.FieldPolicy)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	retriever := email.NewRetriever(email.Options{
		Port:           cfg.Mail.Port,
		Mailbox:        cfg.Mail.Mailbox,
		AllowedSenders: cfg.Mail.AllowedSenders,
		MaxPartDepth:   cfg.Mail.MaxPartDepth,
		Logger:         a.logger,
	})

	gen := generate.New(generate.Options{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		HTTPClient:  &http.Client{Timeout: cfg.Generation.Timeout},
		Logger:      a.logger,
	})

	rep, closeRep := a.reporter()
	p := digest.New(digest.Deps{
		Fetcher:   timeoutFetcher{f: retriever, timeout: cfg.Mail.Timeout},
		Generator: gen,
		Store:     st,
		Reporter:  rep,
		Logger:    a.logger,
		Prompt:    cfg.Generation.Prompt,
		Policy:    policy,
	})

	sum, err := p.Query(cmd.Context(), queryFor(cfg))
	closeRep()
	switch {
	case email.IsConnectionError(err):
		return fmt.Errorf("%w (check mail.server and the mail credentials, or run `digest login`)", err)
	case generate.IsCallError(err):
		return fmt.Errorf("%w (check generation.api_key and generation.base_url)", err)
	case err != nil:
		return err
	}

	out := cmd.OutOrStdout()
	if sum.Fetched == 0 {
		printf(out, "No new invitation emails in the last %d day(s).\n", cfg.Mail.LookbackDays)
		return nil
	}

	a.logger.Debug("generation output", zap.String("run", sum.Run), zap.String("raw", sum.Raw))
	printf(out, "%d emails, %d events: %d rows inserted, %d rows updated (run %s)\n",
		sum.Fetched, sum.Events, sum.Inserted, sum.Updated, sum.Run)
	return nil
}

func queryFor(cfg *model.AppConfig) email.Query {
	return email.Query{
		Address:      cfg.Mail.Address,
		Password:     cfg.Mail.Password,
		Host:         cfg.Mail.Server,
		LookbackDays: cfg.Mail.LookbackDays,
	}
}

// timeoutFetcher bounds each retrieval by a deadline.
type timeoutFetcher struct {
	f       digest.Fetcher
	timeout time.Duration
}

func (t timeoutFetcher) FetchMessages(ctx context.Context, q email.Query) ([]model.Message, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.f.FetchMessages(ctx, q)
}
