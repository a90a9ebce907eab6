package digest

import (
	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/logging"
)

// Step names a stage of a pipeline run.
type Step string

const (
	StepFetch    Step = "fetch"
	StepPrompt   Step = "prompt"
	StepGenerate Step = "generate"
	StepParse    Step = "parse"
	StepStore    Step = "store"
	StepSearch   Step = "search"
	StepRender   Step = "render"
)

// Reporter receives progress notifications as a run moves through its
// steps. Each Start is followed by exactly one Done or Fail for the same
// step.
type Reporter interface {
	Start(step Step, msg string)
	Done(step Step, msg string)
	Fail(step Step, err error)
}

// LogReporter reports progress as structured log lines.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter returns a Reporter writing to logger.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logging.OrNop(logger)}
}

func (r *LogReporter) Start(step Step, msg string) {
	r.logger.Info(msg, zap.String("step", string(step)), zap.String("state", "start"))
}

func (r *LogReporter) Done(step Step, msg string) {
	r.logger.Info(msg, zap.String("step", string(step)), zap.String("state", "done"))
}

func (r *LogReporter) Fail(step Step, err error) {
	r.logger.Error("step failed", zap.String("step", string(step)), zap.Error(err))
}

type nopReporter struct{}

func (nopReporter) Start(Step, string) {}
func (nopReporter) Done(Step, string)  {}
func (nopReporter) Fail(Step, error)   {}
