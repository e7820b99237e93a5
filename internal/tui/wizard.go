package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/songline/internal/db"
	"github.com/vvka-141/songline/pkg/songline"
)

// ConnectionTester tests database connectivity.
type ConnectionTester interface {
	TestConnection(ctx context.Context, cfg songline.ConnectionConfig) (info string, err error)
}

type pgxTester struct{}

func (pgxTester) TestConnection(ctx context.Context, cfg songline.ConnectionConfig) (string, error) {
	if cfg.AuthMethod != songline.AuthMethodStandard {
		return fmt.Sprintf("Configuration ready for %s authentication", cfg.AuthMethod.String()), nil
	}

	conn, err := pgx.Connect(ctx, db.BuildConnectionString(&cfg))
	if err != nil {
		return "", err
	}
	defer conn.Close(ctx)

	var version string
	if err := conn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", err
	}

	if idx := strings.Index(version, ","); idx > 0 {
		version = version[:idx]
	}
	return version, nil
}

// ConnectionResult holds the result of the connection wizard.
type ConnectionResult struct {
	Cancelled bool
	Config    songline.ConnectionConfig
	Tested    bool
	TestInfo  string
}

// WizardOption configures a ConnectionWizard.
type WizardOption func(*ConnectionWizard)

// WithTester injects a ConnectionTester (for testing/mocking).
func WithTester(t ConnectionTester) WizardOption {
	return func(w *ConnectionWizard) {
		w.tester = t
	}
}

type wizardStep int

const (
	stepForm wizardStep = iota
	stepTesting
	stepDone
)

// Form field indexes.
const (
	fieldHost = iota
	fieldPort
	fieldUsername
	fieldPassword
	fieldDatabase
	fieldSSLMode
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Host", "Port", "Username", "Password", "Database", "SSL Mode",
}

// ConnectionWizard is a small form-based bubbletea model that collects
// PostgreSQL connection parameters and verifies them against the server.
type ConnectionWizard struct {
	inputs  [fieldCount]textinput.Model
	focus   int
	step    wizardStep
	tester  ConnectionTester
	err     error
	result  ConnectionResult
	testMsg string
}

type testResultMsg struct {
	info string
	err  error
}

// NewConnectionWizard creates a wizard pre-filled with sensible defaults.
func NewConnectionWizard(opts ...WizardOption) ConnectionWizard {
	w := ConnectionWizard{tester: pgxTester{}}

	placeholders := [fieldCount]string{
		"localhost", "5432", "postgres", "", "sparkifydb", "prefer",
	}
	for i := range w.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		ti.Width = 40
		if i == fieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		w.inputs[i] = ti
	}
	w.inputs[fieldHost].Focus()

	for _, opt := range opts {
		opt(&w)
	}
	return w
}

func (w ConnectionWizard) Init() tea.Cmd {
	return textinput.Blink
}

func (w ConnectionWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			w.result.Cancelled = true
			return w, tea.Quit
		}
		if w.step == stepForm {
			return w.updateForm(msg)
		}
		if w.step == stepDone {
			return w, tea.Quit
		}
		return w, nil

	case testResultMsg:
		w.step = stepDone
		if msg.err != nil {
			w.err = msg.err
			w.result.Tested = false
		} else {
			w.result.Tested = true
			w.result.TestInfo = msg.info
			w.testMsg = msg.info
		}
		return w, tea.Quit
	}

	return w.updateInputs(msg)
}

func (w ConnectionWizard) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if w.focus == fieldCount-1 {
			if err := w.validate(); err != nil {
				w.err = err
				return w, nil
			}
			w.err = nil
			w.buildConfig()
			w.step = stepTesting
			return w, w.testConnection()
		}
		w.focus++
		return w.refocus()

	case tea.KeyTab, tea.KeyDown:
		w.focus = (w.focus + 1) % fieldCount
		return w.refocus()

	case tea.KeyShiftTab, tea.KeyUp:
		w.focus = (w.focus + fieldCount - 1) % fieldCount
		return w.refocus()
	}

	return w.updateInputs(msg)
}

func (w ConnectionWizard) refocus() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for i := range w.inputs {
		if i == w.focus {
			cmds = append(cmds, w.inputs[i].Focus())
		} else {
			w.inputs[i].Blur()
		}
	}
	return w, tea.Batch(cmds...)
}

func (w ConnectionWizard) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [fieldCount]tea.Cmd
	for i := range w.inputs {
		w.inputs[i], cmds[i] = w.inputs[i].Update(msg)
	}
	return w, tea.Batch(cmds[:]...)
}

// value returns the field value, falling back to the placeholder default.
func (w *ConnectionWizard) value(field int) string {
	if v := w.inputs[field].Value(); v != "" {
		return v
	}
	return w.inputs[field].Placeholder
}

func (w *ConnectionWizard) validate() error {
	port := w.value(fieldPort)
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("port must be a number: %q", port)
	}
	if w.value(fieldDatabase) == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (w *ConnectionWizard) buildConfig() {
	port, _ := strconv.Atoi(w.value(fieldPort))
	w.result.Config = songline.ConnectionConfig{
		Host:       w.value(fieldHost),
		Port:       port,
		Username:   w.value(fieldUsername),
		Password:   w.inputs[fieldPassword].Value(),
		Database:   w.value(fieldDatabase),
		SSLMode:    w.value(fieldSSLMode),
		AuthMethod: songline.AuthMethodStandard,
	}
}

func (w *ConnectionWizard) testConnection() tea.Cmd {
	cfg := w.result.Config
	tester := w.tester
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		info, err := tester.TestConnection(ctx, cfg)
		return testResultMsg{info: info, err: err}
	}
}

func (w ConnectionWizard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("songline connection setup"))
	b.WriteString("\n\n")

	switch w.step {
	case stepForm:
		for i := range w.inputs {
			label := fieldLabels[i]
			if i == w.focus {
				b.WriteString(FocusedLabelStyle.Render(SymbolArrowRight + " " + label))
			} else {
				b.WriteString(LabelStyle.Render("  " + label))
			}
			b.WriteString("\n")
			b.WriteString("  " + w.inputs[i].View())
			b.WriteString("\n")
		}
		if w.err != nil {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render(SymbolCross + " " + w.err.Error()))
			b.WriteString("\n")
		}
		b.WriteString(HelpStyle.Render("enter: next field / confirm  •  tab: move  •  esc: cancel"))

	case stepTesting:
		b.WriteString(LabelStyle.Render("Testing connection..."))

	case stepDone:
		if w.err != nil {
			b.WriteString(ErrorStyle.Render(SymbolCross + " Connection failed: " + w.err.Error()))
		} else {
			b.WriteString(SuccessStyle.Render(SymbolCheck + " Connected: " + w.testMsg))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// Result returns the wizard outcome after the program has finished.
func (w ConnectionWizard) Result() ConnectionResult {
	return w.result
}

// RunConnectionWizard runs the wizard and returns the collected connection
// configuration. The caller must ensure the terminal is interactive first.
func RunConnectionWizard(opts ...WizardOption) (*ConnectionResult, error) {
	program := tea.NewProgram(NewConnectionWizard(opts...))
	model, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("connection wizard failed: %w", err)
	}

	wizard, ok := model.(ConnectionWizard)
	if !ok {
		return nil, fmt.Errorf("unexpected wizard model type %T", model)
	}

	result := wizard.Result()
	return &result, nil
}
