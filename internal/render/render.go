// Package render splices event fragments into an HTML announcement
// template.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/nhle/seminar-digest/internal/model"
)

const (
	DefaultStartMarker    = "<!-- First Seminar -->"
	DefaultEndMarker      = "<!-- End of the first seminar -->"
	DefaultSequenceMarker = "<!-- Events -->"

	// UnknownTitle is shown for events without a title.
	UnknownTitle = "未知事件"
)

// ErrMarkersNotFound is returned when the template has no usable start/end
// marker pair (and, with the legacy fallback, no sample block either).
var ErrMarkersNotFound = errors.New("template markers not found")

// TemplateError wraps a failure to read, render or write an announcement.
type TemplateError struct {
	Op   string
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s template: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s template %s: %v", e.Op, e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// fragmentTmpl is a text template so its HTML comments survive; every field
// goes through the html escaper instead.
var fragmentTmpl = template.Must(template.New("event").Parse(`        <!-- Event -->
        <section class="content-section box-sizing-border">
          <p class="no-margin box-sizing-border">
            <span class="section-title box-sizing-border"><strong class="box-sizing-border"> {{html .Title}} </strong></span>
          </p>
          <p class="no-margin box-sizing-border">
            报告人：{{html .SpeakerName}} {{html .SpeakerTitle}}
          </p>
          <p class="no-margin box-sizing-border">
            时间:<span class="highlight-text box-sizing-border"> {{html .TimeBegin}} </span>
          </p>
          <p class="no-margin box-sizing-border">
            地点: {{html .Position}}
          </p>
        </section>
        <!-- Divider -->
        <section class="divider box-sizing-border">
          <section class="dotted-line box-sizing-border">
            <svg viewbox="0 0 1 1" style="float:left;line-height:0;width:0;vertical-align:top;box-sizing:border-box;" xml:space="default"></svg>
          </section>
        </section>
`))

// Renderer splices event fragments between two markers of a template.
type Renderer struct {
	StartMarker    string
	EndMarker      string
	SequenceMarker string

	// LegacyFallback replaces the historical sample block literally when
	// the markers are absent.
	LegacyFallback bool
}

// New returns a Renderer with the default markers.
func New() Renderer {
	return Renderer{
		StartMarker:    DefaultStartMarker,
		EndMarker:      DefaultEndMarker,
		SequenceMarker: DefaultSequenceMarker,
	}
}

func (r Renderer) withDefaults() Renderer {
	if r.StartMarker == "" {
		r.StartMarker = DefaultStartMarker
	}
	if r.EndMarker == "" {
		r.EndMarker = DefaultEndMarker
	}
	if r.SequenceMarker == "" {
		r.SequenceMarker = DefaultSequenceMarker
	}
	return r
}

// Fragments renders one section plus divider per event, in input order.
// Field values are HTML-escaped; the <!-- Event --> and <!-- Divider -->
// comments are kept.
func (r Renderer) Fragments(events []model.Event) (string, error) {
	var sb strings.Builder
	for i, e := range events {
		if e.Title == "" {
			e.Title = UnknownTitle
		}
		if err := fragmentTmpl.Execute(&sb, e); err != nil {
			return "", fmt.Errorf("rendering event %d: %w", i, err)
		}
	}
	return sb.String(), nil
}

// Render returns tmpl with everything from the first start marker through
// the first end marker after it replaced by the sequence marker followed by
// the event fragments.
func (r Renderer) Render(events []model.Event, tmpl string) (string, error) {
	r = r.withDefaults()

	fragments, err := r.Fragments(events)
	if err != nil {
		return "", &TemplateError{Op: "render", Err: err}
	}

	start := strings.Index(tmpl, r.StartMarker)
	if start >= 0 {
		rest := tmpl[start+len(r.StartMarker):]
		if end := strings.Index(rest, r.EndMarker); end >= 0 {
			after := rest[end+len(r.EndMarker):]

			var sb strings.Builder
			sb.Grow(len(tmpl) + len(fragments))
			sb.WriteString(tmpl[:start])
			sb.WriteString(r.SequenceMarker)
			if fragments != "" {
				sb.WriteString("\n")
				sb.WriteString(fragments)
			}
			sb.WriteString(after)
			return sb.String(), nil
		}
	}

	if r.LegacyFallback && strings.Contains(tmpl, LegacySampleBlock) {
		out := strings.ReplaceAll(tmpl, r.StartMarker, r.SequenceMarker)
		return strings.ReplaceAll(out, LegacySampleBlock, fragments), nil
	}

	return "", &TemplateError{Op: "render", Err: ErrMarkersNotFound}
}

// RenderFile reads the template at templatePath, renders events into it
// and writes the result to outputPath, creating its directory.
func (r Renderer) RenderFile(events []model.Event, templatePath, outputPath string) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return &TemplateError{Op: "read", Path: templatePath, Err: err}
	}

	out, err := r.Render(events, string(raw))
	if err != nil {
		var te *TemplateError
		if errors.As(err, &te) {
			te.Path = templatePath
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return &TemplateError{Op: "write", Path: outputPath, Err: err}
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return &TemplateError{Op: "write", Path: outputPath, Err: err}
	}
	return nil
}
