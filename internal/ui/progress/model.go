package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/seminar-digest/internal/digest"
	"github.com/nhle/seminar-digest/internal/theme"
)

type startMsg struct {
	step digest.Step
	text string
}

type doneMsg struct {
	step digest.Step
	text string
}

type failMsg struct {
	step digest.Step
	err  error
}

type closeMsg struct{}

// Model is the Bubble Tea model behind Reporter. Finished steps stay on
// screen as ✓/✗ lines; the running step shows a spinner.
type Model struct {
	spinner  spinner.Model
	lines    []string
	step     digest.Step
	text     string
	active   bool
	quitting bool
}

// NewModel creates an idle progress model.
func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{spinner: sp}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles step notifications and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.step = msg.step
		m.text = msg.text
		m.active = true
		m.spinner.Style = theme.SpinnerStyle(string(msg.step))
		return m, nil

	case doneMsg:
		m.active = false
		m.lines = append(m.lines, fmt.Sprintf("%s %s",
			theme.DoneStyle.Render("✓"), msg.text))
		return m, nil

	case failMsg:
		m.active = false
		m.lines = append(m.lines, fmt.Sprintf("%s %s %s",
			theme.FailStyle.Render("✗"),
			theme.HintStyle.Render(string(msg.step)+":"),
			msg.err))
		return m, nil

	case closeMsg:
		m.quitting = true
		m.active = false
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders finished steps followed by the running one.
func (m Model) View() string {
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.active && !m.quitting {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.text)
		b.WriteString("\n")
	}
	return b.String()
}

// Reporter drives a Bubble Tea program from pipeline progress
// notifications. It satisfies digest.Reporter.
type Reporter struct {
	program *tea.Program
	done    chan struct{}
	err     error
}

var _ digest.Reporter = (*Reporter)(nil)

// New starts the progress display on out. Close must be called to stop it.
func New(out io.Writer) *Reporter {
	r := &Reporter{
		program: tea.NewProgram(
			NewModel(),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		_, r.err = r.program.Run()
	}()
	return r
}

func (r *Reporter) Start(step digest.Step, text string) {
	r.program.Send(startMsg{step: step, text: text})
}

func (r *Reporter) Done(step digest.Step, text string) {
	r.program.Send(doneMsg{step: step, text: text})
}

func (r *Reporter) Fail(step digest.Step, err error) {
	r.program.Send(failMsg{step: step, err: err})
}

// Close stops the display after rendering the final lines and waits for
// the program to exit.
func (r *Reporter) Close() error {
	r.program.Send(closeMsg{})
	<-r.done
	return r.err
}
