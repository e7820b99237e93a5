package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/songline/pkg/songline"
)

type mockTester struct {
	info   string
	err    error
	called bool
	gotCfg songline.ConnectionConfig
}

func (m *mockTester) TestConnection(_ context.Context, cfg songline.ConnectionConfig) (string, error) {
	m.called = true
	m.gotCfg = cfg
	return m.info, m.err
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// submitForm presses enter on each field until the form submits.
func submitForm(m tea.Model) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := 0; i < fieldCount; i++ {
		m, cmd = m.Update(keyMsg("enter"))
	}
	return m, cmd
}

func TestConnectionWizard_EscCancels(t *testing.T) {
	model, _ := NewConnectionWizard().Update(keyMsg("esc"))

	wizard, ok := model.(ConnectionWizard)
	require.True(t, ok)
	assert.True(t, wizard.Result().Cancelled)
}

func TestConnectionWizard_DefaultsSubmitted(t *testing.T) {
	tester := &mockTester{info: "PostgreSQL 16.2"}
	var m tea.Model = NewConnectionWizard(WithTester(tester))

	m, cmd := submitForm(m)
	require.NotNil(t, cmd)

	// Run the test command and feed its result back
	msg := cmd()
	result, ok := msg.(testResultMsg)
	require.True(t, ok)
	m, _ = m.Update(result)

	wizard := m.(ConnectionWizard)
	assert.True(t, tester.called)
	assert.True(t, wizard.Result().Tested)
	assert.Equal(t, "PostgreSQL 16.2", wizard.Result().TestInfo)

	cfg := wizard.Result().Config
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "postgres", cfg.Username)
	assert.Equal(t, "sparkifydb", cfg.Database)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, songline.AuthMethodStandard, cfg.AuthMethod)
}

func TestConnectionWizard_TypedValuesOverrideDefaults(t *testing.T) {
	tester := &mockTester{info: "ok"}
	var m tea.Model = NewConnectionWizard(WithTester(tester))

	for _, r := range "db.example.com" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := submitForm(m)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	wizard := m.(ConnectionWizard)
	assert.Equal(t, "db.example.com", wizard.Result().Config.Host)
}

func TestConnectionWizard_InvalidPortRejected(t *testing.T) {
	var m tea.Model = NewConnectionWizard(WithTester(&mockTester{}))

	// Move to the port field and type a non-numeric value
	m, _ = m.Update(keyMsg("tab"))
	for _, r := range "abc" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, _ = submitForm(m)

	wizard := m.(ConnectionWizard)
	assert.Contains(t, wizard.View(), "port must be a number")
	assert.False(t, wizard.Result().Tested)
}

func TestConnectionWizard_TestFailureShown(t *testing.T) {
	tester := &mockTester{err: fmt.Errorf("connection refused")}
	var m tea.Model = NewConnectionWizard(WithTester(tester))

	m, cmd := submitForm(m)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	wizard := m.(ConnectionWizard)
	assert.False(t, wizard.Result().Tested)
	assert.Contains(t, wizard.View(), "Connection failed")
}

func TestConnectionWizard_ViewShowsAllLabels(t *testing.T) {
	view := NewConnectionWizard().View()
	for _, label := range fieldLabels {
		assert.True(t, strings.Contains(view, label), "missing label %q", label)
	}
}
