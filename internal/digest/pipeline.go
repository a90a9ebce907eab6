// Package digest wires mail retrieval, event generation, storage and
// rendering into the query, search and generate runs.
package digest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/email"
	"github.com/nhle/seminar-digest/internal/event"
	"github.com/nhle/seminar-digest/internal/generate"
	"github.com/nhle/seminar-digest/internal/logging"
	"github.com/nhle/seminar-digest/internal/model"
	"github.com/nhle/seminar-digest/internal/store"
)

// ErrNoEvents is returned by Generate when no stored event matches the date.
var ErrNoEvents = errors.New("no events found")

// Fetcher retrieves recent invitation messages.
type Fetcher interface {
	FetchMessages(ctx context.Context, q email.Query) ([]model.Message, error)
}

// Generator turns a prompt into raw event JSON.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EventStore is the subset of store.Store the pipeline uses.
type EventStore interface {
	Upsert(ctx context.Context, events []model.Event) (store.UpsertResult, error)
	SearchByTimeBegin(ctx context.Context, substring string) ([]model.Event, error)
}

// Renderer writes events into an announcement file.
type Renderer interface {
	RenderFile(events []model.Event, templatePath, outputPath string) error
}

// Deps holds the collaborators of a Pipeline. Only the ones needed by the
// operations actually called must be set.
type Deps struct {
	Fetcher   Fetcher
	Generator Generator
	Store     EventStore
	Renderer  Renderer
	Reporter  Reporter
	Logger    *zap.Logger

	// Prompt is the generation prompt template; empty uses the default.
	Prompt string
	Policy event.FieldPolicy
}

// Pipeline runs the digest operations.
type Pipeline struct {
	fetcher   Fetcher
	generator Generator
	store     EventStore
	renderer  Renderer
	reporter  Reporter
	logger    *zap.Logger
	prompt    string
	policy    event.FieldPolicy
}

// New creates a Pipeline.
func New(d Deps) *Pipeline {
	p := &Pipeline{
		fetcher:   d.Fetcher,
		generator: d.Generator,
		store:     d.Store,
		renderer:  d.Renderer,
		reporter:  d.Reporter,
		logger:    logging.OrNop(d.Logger),
		prompt:    d.Prompt,
		policy:    d.Policy,
	}
	if p.reporter == nil {
		p.reporter = nopReporter{}
	}
	if p.prompt == "" {
		p.prompt = model.DefaultPrompt
	}
	if p.policy == "" {
		p.policy = event.PolicyDefault
	}
	return p
}

// Summary describes the outcome of a query run.
type Summary struct {
	Run      string
	Fetched  int
	Events   int
	Inserted int
	Updated  int

	// Raw is the unparsed generation output.
	Raw string
}

// Query fetches recent messages, asks the generator for their events and
// upserts them. A run that finds no messages stops before generation.
func (p *Pipeline) Query(ctx context.Context, q email.Query) (*Summary, error) {
	sum := &Summary{Run: uuid.NewString()}
	logger := p.logger.With(zap.String("run", sum.Run))

	p.reporter.Start(StepFetch, "Fetching emails...")
	msgs, err := p.fetcher.FetchMessages(ctx, q)
	if err != nil {
		p.reporter.Fail(StepFetch, err)
		return sum, fmt.Errorf("fetching messages: %w", err)
	}
	sum.Fetched = len(msgs)
	p.reporter.Done(StepFetch, fmt.Sprintf("%d emails fetched", len(msgs)))
	logger.Info("fetched messages", zap.Int("count", len(msgs)), zap.String("host", q.Host))

	if len(msgs) == 0 {
		return sum, nil
	}

	p.reporter.Start(StepPrompt, "Building prompt...")
	prompt := generate.BuildPrompt(p.prompt, msgs)
	p.reporter.Done(StepPrompt, "Prompt built")

	p.reporter.Start(StepGenerate, "Querying API...")
	raw, err := p.generator.Complete(ctx, prompt)
	if err != nil {
		p.reporter.Fail(StepGenerate, err)
		return sum, fmt.Errorf("generating events: %w", err)
	}
	sum.Raw = raw
	p.reporter.Done(StepGenerate, "API response received")

	p.reporter.Start(StepParse, "Parsing events...")
	events, err := event.Parser{Policy: p.policy, Logger: logger}.Parse([]byte(raw))
	if err != nil {
		p.reporter.Fail(StepParse, err)
		return sum, fmt.Errorf("parsing events: %w", err)
	}
	sum.Events = len(events)
	p.reporter.Done(StepParse, fmt.Sprintf("%d events parsed", len(events)))

	p.reporter.Start(StepStore, "Storing events...")
	res, err := p.store.Upsert(ctx, events)
	if err != nil {
		p.reporter.Fail(StepStore, err)
		return sum, fmt.Errorf("storing events: %w", err)
	}
	sum.Inserted, sum.Updated = res.Inserted, res.Updated
	p.reporter.Done(StepStore, fmt.Sprintf("%d rows inserted, %d rows updated", res.Inserted, res.Updated))

	logger.Info("query complete",
		zap.Int("events", sum.Events),
		zap.Int("inserted", sum.Inserted),
		zap.Int("updated", sum.Updated),
	)
	return sum, nil
}

// Search returns stored events whose time_begin contains substring.
func (p *Pipeline) Search(ctx context.Context, substring string) ([]model.Event, error) {
	p.reporter.Start(StepSearch, fmt.Sprintf("Searching events for %q...", substring))
	events, err := p.store.SearchByTimeBegin(ctx, substring)
	if err != nil {
		p.reporter.Fail(StepSearch, err)
		return nil, err
	}
	p.reporter.Done(StepSearch, fmt.Sprintf("%d events found", len(events)))
	return events, nil
}

// Generate renders the events whose time_begin contains date into
// outputPath. It returns ErrNoEvents without writing anything when nothing
// matches.
func (p *Pipeline) Generate(ctx context.Context, date, templatePath, outputPath string) (int, error) {
	events, err := p.Search(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("searching events: %w", err)
	}
	if len(events) == 0 {
		return 0, ErrNoEvents
	}

	p.reporter.Start(StepRender, "Rendering "+outputPath+"...")
	if err := p.renderer.RenderFile(events, templatePath, outputPath); err != nil {
		p.reporter.Fail(StepRender, err)
		return 0, err
	}
	p.reporter.Done(StepRender, fmt.Sprintf("%d events written to %s", len(events), outputPath))

	p.logger.Info("announcement generated",
		zap.String("date", date),
		zap.String("output", outputPath),
		zap.Int("events", len(events)),
	)
	return len(events), nil
}
