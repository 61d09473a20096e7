package tuicmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/document"
	"github.com/papercomputeco/parley/pkg/orchestrator"
	"github.com/papercomputeco/parley/pkg/session"
)

// chrome is the number of rows around the viewport: header, rule, status,
// input and help.
const chrome = 6

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
)

type chatKeyMap struct {
	Send     key.Binding
	Voice    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Voice, k.PageUp, k.PageDown, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() chatKeyMap {
	return chatKeyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Voice:    key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "voice")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

type turnDoneMsg struct {
	turn orchestrator.Turn
}

type documentLoadedMsg struct {
	doc document.Document
	err error
}

type chatModel struct {
	ctx       context.Context
	assistant *assistant.Assistant
	session   *session.Session
	modelName string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     chatKeyMap

	lines   []string
	busy    bool
	width   int
	initial []bubbletea.Cmd
}

func newChatModel(ctx context.Context, a *assistant.Assistant, sess *session.Session, modelName string) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message or /upload <path>"
	input.Prompt = "> "
	input.Focus()

	vp := viewport.New(80, 18)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}

	return chatModel{
		ctx:       ctx,
		assistant: a,
		session:   sess,
		modelName: modelName,
		viewport:  vp,
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      defaultKeyMap(),
		width:     80,
	}
}

func (m chatModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(append([]bubbletea.Cmd{textinput.Blink}, m.initial...)...)
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chrome)
		m.input.Width = max(1, msg.Width-4)
		m.refresh()
		return m, nil

	case turnDoneMsg:
		m.busy = false
		m.appendTurn(msg.turn)
		m.assistant.SpeakTurn(m.session, msg.turn)
		return m, nil

	case documentLoadedMsg:
		if msg.err != nil {
			m.system(fmt.Sprintf("could not read document: %v", msg.err))
		} else {
			m.system(fmt.Sprintf("loaded %s (%d characters)", msg.doc.Name, len([]rune(msg.doc.Text))))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Voice):
		return m.setVoice(!m.session.Voice())

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy {
			return m, nil
		}
		m.input.Reset()
		if strings.HasPrefix(text, "/") {
			return m.command(text)
		}
		return m.submit(text)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn in the background.
func (m chatModel) submit(text string) (bubbletea.Model, bubbletea.Cmd) {
	m.busy = true
	m.appendLine(fmt.Sprintf("%s: %s", cliui.UserLabel, text))

	ctx, a, sess := m.ctx, m.assistant, m.session
	run := func() bubbletea.Msg {
		return turnDoneMsg{turn: a.Orchestrator.HandleTurn(ctx, sess, text)}
	}
	return m, bubbletea.Batch(run, m.spinner.Tick)
}

func (m chatModel) command(input string) (bubbletea.Model, bubbletea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return m, bubbletea.Quit
	case "/upload":
		if arg == "" {
			m.system("usage: /upload <path>")
			return m, nil
		}
		return m, loadDocumentCmd(m.ctx, m.assistant, m.session, arg)
	case "/clear":
		m.session.ClearDocument()
		m.system("document context cleared")
	case "/voice":
		switch arg {
		case "on":
			return m.setVoice(true)
		case "off":
			return m.setVoice(false)
		case "":
			return m.setVoice(!m.session.Voice())
		}
		m.system("usage: /voice on|off")
	default:
		m.system(fmt.Sprintf("unknown command %s", name))
	}
	return m, nil
}

func (m chatModel) setVoice(on bool) (bubbletea.Model, bubbletea.Cmd) {
	m.session.SetVoice(on)
	if on && m.assistant.Speaker == nil {
		m.system("voice on, but no speech synthesizer is available")
		return m, nil
	}
	m.system("voice " + onOff(on))
	return m, nil
}

func loadDocumentCmd(ctx context.Context, a *assistant.Assistant, sess *session.Session, path string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		doc, err := a.LoadDocument(ctx, sess, path)
		return documentLoadedMsg{doc: doc, err: err}
	}
}

func (m *chatModel) appendTurn(turn orchestrator.Turn) {
	answer := turn.Answer
	if !turn.OK() {
		answer = cliui.ErrorStyle.Render(answer)
	}
	m.appendLine(fmt.Sprintf("%s: %s", cliui.AssistantLabel, answer))
	if turn.PersistErr != nil {
		m.system(fmt.Sprintf("answer was not saved to memory: %v", turn.PersistErr))
	}
}

func (m *chatModel) system(text string) {
	m.appendLine(cliui.SystemLabel + " " + text)
}

func (m *chatModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *chatModel) refresh() {
	wrap := lipgloss.NewStyle().Width(max(1, m.viewport.Width))
	rendered := make([]string, len(m.lines))
	for i, line := range m.lines {
		rendered[i] = wrap.Render(line)
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	lines := []string{
		m.viewHeader(),
		dividerStyle.Render(strings.Repeat("─", max(1, m.width))),
		m.viewport.View(),
		m.viewStatus(),
		m.input.View(),
		m.help.View(m.keys),
	}
	return strings.Join(lines, "\n")
}

func (m chatModel) viewHeader() string {
	parts := []string{
		titleStyle.Render("parley"),
		mutedStyle.Render(m.modelName),
		mutedStyle.Render("voice " + onOff(m.session.Voice())),
	}
	if name, _ := m.session.Document(); name != "" {
		parts = append(parts, accentStyle.Render(name))
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

func (m chatModel) viewStatus() string {
	if m.busy {
		return m.spinner.View() + " " + mutedStyle.Render("thinking")
	}
	return ""
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
