package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/flowgraph/host"
	"github.com/wippyai/flowgraph/slot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	ctx      context.Context
	binding  *host.Binding
	source   string
	values   map[string]string
	inputs   []slot.Descriptor
	outputs  []slot.Descriptor
	results  []string
	editor   textinput.Model
	selected int
	calls    int
	state    modelState
}

type modelState int

const (
	stateSelectSlot modelState = iota
	stateEditSlot
	stateShowResult
)

func newInteractiveModel(ctx context.Context, b *host.Binding, source string) *interactiveModel {
	m := &interactiveModel{
		ctx:     ctx,
		binding: b,
		source:  source,
		values:  make(map[string]string),
		state:   stateSelectSlot,
	}
	for _, d := range b.Slots() {
		if d.Direction == slot.Input {
			m.inputs = append(m.inputs, d)
		} else {
			m.outputs = append(m.outputs, d)
		}
	}
	return m
}

type processedMsg struct {
	err     error
	results []string
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateEditSlot {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectSlot && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectSlot && m.selected < len(m.inputs)-1 {
				m.selected++
			}

		case "p":
			if m.state == stateSelectSlot {
				return m, m.process
			}

		case "enter":
			switch m.state {
			case stateSelectSlot:
				if len(m.inputs) > 0 {
					m.prepareEditor()
					m.state = stateEditSlot
					return m, textinput.Blink
				}

			case stateEditSlot:
				m.applyEdit()
				return m, nil

			case stateShowResult:
				m.state = stateSelectSlot
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateEditSlot:
				m.state = stateSelectSlot
				m.err = nil
			case stateShowResult:
				m.state = stateSelectSlot
				m.err = nil
			}
		}

	case processedMsg:
		m.results = msg.results
		m.err = msg.err
		m.state = stateShowResult
		if msg.err == nil {
			m.calls++
		}
	}

	if m.state == stateEditSlot {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareEditor() {
	d := m.inputs[m.selected]
	ti := textinput.New()
	ti.Placeholder = d.Type.String()
	ti.Prompt = d.Name + ": "
	ti.Width = 40
	ti.SetValue(m.values[d.Name])
	ti.Focus()
	m.editor = ti
	m.err = nil
}

func (m *interactiveModel) applyEdit() {
	d := m.inputs[m.selected]
	raw := m.editor.Value()
	v, err := parseValue(raw)
	if err == nil {
		err = m.binding.Set(d.Name, v)
	}
	if err != nil {
		m.err = err
		return
	}
	m.values[d.Name] = raw
	m.state = stateSelectSlot
}

func (m *interactiveModel) process() tea.Msg {
	if err := m.binding.Process(m.ctx); err != nil {
		return processedMsg{err: err}
	}
	results := make([]string, 0, len(m.outputs))
	for _, d := range m.outputs {
		v, err := m.binding.Get(d.Name)
		if err != nil {
			return processedMsg{err: err}
		}
		results = append(results, fmt.Sprintf("%s = %v", d.Name, v))
	}
	return processedMsg{results: results}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Slot Runner"))
	b.WriteString(" ")
	b.WriteString(m.binding.Name())
	b.WriteString(" (")
	b.WriteString(m.source)
	b.WriteString(")\n\n")

	switch m.state {
	case stateSelectSlot:
		b.WriteString("Inputs:\n\n")
		for i, d := range m.inputs {
			line := m.formatSlot(d)
			if v, ok := m.values[d.Name]; ok {
				line += " = " + v
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\nOutputs:\n\n")
		for _, d := range m.outputs {
			b.WriteString("  " + m.formatSlot(d) + "\n")
		}
		b.WriteString(fmt.Sprintf("\nprocessed %d times\n\n", m.calls))
		b.WriteString(helpStyle.Render("↑/↓ select • enter edit • p process • q quit"))

	case stateEditSlot:
		d := m.inputs[m.selected]
		b.WriteString(fmt.Sprintf("Setting %s\n\n", funcStyle.Render(d.Name)))
		b.WriteString(m.editor.View())
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(d.Type.String()))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("values are YAML: 2.5, [1, 2], null • enter set • esc back"))

	case stateShowResult:
		b.WriteString("Result:\n\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(strings.Join(m.results, "\n")))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatSlot(d slot.Descriptor) string {
	return funcStyle.Render(d.Name) + ": " + typeStyle.Render(d.Type.String())
}

func runInteractive(ctx context.Context, b *host.Binding, source string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("interactive mode needs a terminal on stdin")
	}
	p := tea.NewProgram(newInteractiveModel(ctx, b, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
