// Package tui provides the interactive terminal form for plo.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/intake"
	"github.com/ppiankov/plo/internal/model"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// stateStyle colors the state badge shown above a report.
func stateStyle(s model.OperatingState) lipgloss.Style {
	color := successColor
	switch s {
	case model.Stressed:
		color = warningColor
	case model.Overloaded:
		color = errorColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Padding(0, 1)
}

// Field indexes, in tab order.
const (
	FieldDeadlines = iota
	FieldDomains
	FieldEnergy
	FieldTasks
)

var labels = []string{
	"Fixed deadlines (next 14 days)",
	"Active high-load domains",
	"Energy, last 3 days (1-5, comma-separated)",
	"Tasks (optional, ';'-separated: Essay 2026-03-02 [coursework])",
}

var placeholders = []string{"3", "2", "3,4,3", "Report due 2026-03-02 [work]; Exam 2026-03-04"}

// InputError is a form value that could not be read as a number.
type InputError struct {
	Field string
	Value string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %q is not a whole number", e.Field, e.Value)
}

// Form is the bubbletea model behind 'plo form'.
type Form struct {
	// OnEvaluate is called once per successful submit.
	OnEvaluate func(intake.Response)

	cfg      *config.Config
	inputs   []textinput.Model
	focus    int
	response *intake.Response
	message  string
	width    int
}

// New creates a form that evaluates submissions under cfg.
func New(cfg *config.Config) *Form {
	inputs := make([]textinput.Model, len(labels))
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		ti.Width = 60
		inputs[i] = ti
	}
	inputs[FieldTasks].CharLimit = 1024
	inputs[0].Focus()

	return &Form{cfg: cfg, inputs: inputs}
}

// Run starts the form and blocks until the user quits.
func (f *Form) Run() error {
	p := tea.NewProgram(f, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// SetValue fills field i.
func (f *Form) SetValue(i int, v string) {
	f.inputs[i].SetValue(v)
}

// Response returns the last successful submission, if any.
func (f *Form) Response() (intake.Response, bool) {
	if f.response == nil {
		return intake.Response{}, false
	}
	return *f.response, true
}

// Message is the last submission error shown under the form.
func (f *Form) Message() string {
	return f.message
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		return f, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return f, tea.Quit
		}

		if f.response != nil {
			switch msg.String() {
			case "q", "esc":
				return f, tea.Quit
			case "e", "enter":
				f.response = nil
				return f, f.setFocus(f.focus)
			}
			return f, nil
		}

		switch msg.String() {
		case "esc":
			return f, tea.Quit
		case "tab", "down":
			return f, f.setFocus((f.focus + 1) % len(f.inputs))
		case "shift+tab", "up":
			return f, f.setFocus((f.focus + len(f.inputs) - 1) % len(f.inputs))
		case "enter":
			if f.focus < len(f.inputs)-1 {
				return f, f.setFocus(f.focus + 1)
			}
			f.submit()
			return f, nil
		case "ctrl+s":
			f.submit()
			return f, nil
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *Form) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

func (f *Form) submit() {
	issue, err := ParseFields(
		f.inputs[FieldDeadlines].Value(),
		f.inputs[FieldDomains].Value(),
		f.inputs[FieldEnergy].Value(),
		f.inputs[FieldTasks].Value(),
	)
	if err != nil {
		f.message = err.Error()
		return
	}
	resp, err := intake.Respond(issue, f.cfg)
	if err != nil {
		f.message = err.Error()
		return
	}
	f.message = ""
	f.response = &resp
	if f.OnEvaluate != nil {
		f.OnEvaluate(resp)
	}
}

// ParseFields reads raw form values. Energy scores may be separated by
// commas or spaces; task lines by ';'. Ranges are checked by evaluation.
func ParseFields(deadlines, domains, energy, tasks string) (intake.Issue, error) {
	d, err := atoi(model.FieldDeadlines, deadlines)
	if err != nil {
		return intake.Issue{}, err
	}
	h, err := atoi(model.FieldDomains, domains)
	if err != nil {
		return intake.Issue{}, err
	}
	scores, err := model.ParseEnergy(energy)
	if err != nil {
		return intake.Issue{}, err
	}
	return intake.Issue{
		Metrics: model.Metrics{
			FixedDeadlines14d:     d,
			ActiveHighLoadDomains: h,
			EnergyScoresLast3Days: scores,
		},
		TasksText: strings.ReplaceAll(tasks, ";", "\n"),
	}, nil
}

func atoi(field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &InputError{Field: field, Value: s}
	}
	return v, nil
}

// View implements tea.Model
func (f *Form) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("plo · load check"))
	b.WriteString("\n\n")

	if f.response != nil {
		state := f.response.Evaluation.Authority.State()
		b.WriteString(stateStyle(state).Render(string(state)))
		b.WriteString("\n")
		panel := panelStyle
		if f.width > 0 {
			panel = panel.MaxWidth(f.width)
		}
		b.WriteString(panel.Render(strings.TrimRight(f.response.Text, "\n")))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("e edit · q quit"))
		b.WriteString("\n")
		return b.String()
	}

	for i, in := range f.inputs {
		style := labelStyle
		if i == f.focus {
			style = focusedLabelStyle
		}
		b.WriteString(style.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	if f.message != "" {
		b.WriteString(errorStyle.Render(f.message))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("tab next · shift+tab back · enter on last field or ctrl+s submits · esc quit"))
	b.WriteString("\n")
	return b.String()
}
