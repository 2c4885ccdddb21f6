// Package shell is the interactive terminal front end: a command line
// with history, the command output, and a braille preview of the scene.
package shell

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/atomscene/internal/command"
	"github.com/san-kum/atomscene/internal/viz"
)

const (
	maxOutput = 200
	rotStep   = 0.15
	// chrome is the number of rows around the preview: borders, texts,
	// output, prompt and status.
	chrome = 10
)

type line struct {
	text string
	err  bool
}

type Model struct {
	engine  *command.Engine
	preview *viz.Preview
	styles  viz.Styles
	watcher *Watcher

	input   string
	history []string
	histPos int
	output  []line

	width  int
	height int
}

func New(e *command.Engine, pv *viz.Preview, theme viz.Theme) Model {
	return Model{
		engine:  e,
		preview: pv,
		styles:  theme.Styles(),
		width:   80,
		height:  24,
	}
}

// WithWatcher reloads the configuration files whenever w reports a change.
func (m Model) WithWatcher(w *Watcher) Model {
	m.watcher = w
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.preview.Resize(max(m.width-2, 10), max(m.height-chrome, 4))
		return m, nil
	case reloadMsg:
		m = m.Exec("load " + command.Quote(msg.paths...))
		return m, m.watcher.wait()
	case watchErrMsg:
		m = m.print(fmt.Sprintf("watch: %v", msg.err), true)
		return m, m.watcher.wait()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d", "esc":
		return m, tea.Quit
	case "enter":
		cmd := strings.TrimSpace(m.input)
		m.input = ""
		if cmd == "" {
			return m, nil
		}
		m.history = append(m.history, cmd)
		m.histPos = len(m.history)
		m = m.Exec(cmd)
		if m.engine.Exited() {
			return m, tea.Quit
		}
	case "ctrl+p":
		if m.histPos > 0 {
			m.histPos--
			m.input = m.history[m.histPos]
		}
	case "ctrl+n":
		if m.histPos < len(m.history)-1 {
			m.histPos++
			m.input = m.history[m.histPos]
		} else {
			m.histPos = len(m.history)
			m.input = ""
		}
	case "left":
		m.preview.Camera.Rotate(0, -rotStep)
	case "right":
		m.preview.Camera.Rotate(0, rotStep)
	case "up":
		m.preview.Camera.Rotate(-rotStep, 0)
	case "down":
		m.preview.Camera.Rotate(rotStep, 0)
	case "pgup":
		m.preview.Camera.ZoomIn()
	case "pgdown":
		m.preview.Camera.ZoomOut()
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case "ctrl+u":
		m.input = ""
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
	}
	return m, nil
}

// Exec runs cmd through the engine and appends its echo, output and any
// error to the output pane.
func (m Model) Exec(cmd string) Model {
	m = m.print("> "+cmd, false)
	out, err := m.engine.Execute(cmd)
	if out = strings.TrimRight(out, "\n"); out != "" {
		for _, l := range strings.Split(out, "\n") {
			m = m.print(l, false)
		}
	}
	if err != nil {
		m = m.print(err.Error(), true)
	}
	return m
}

func (m Model) print(text string, isErr bool) Model {
	m.output = append(m.output, line{text: text, err: isErr})
	if over := len(m.output) - maxOutput; over > 0 {
		m.output = append([]line(nil), m.output[over:]...)
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Preview.Render(m.preview.Render()))
	b.WriteString("\n")
	for _, t := range m.preview.Texts() {
		b.WriteString(m.styles.Status.Render(t) + "\n")
	}

	rows := max(m.height-m.preview.Rows-6, 3)
	start := max(0, len(m.output)-rows)
	for _, l := range m.output[start:] {
		if l.err {
			b.WriteString(m.styles.Error.Render(l.text) + "\n")
			continue
		}
		b.WriteString(m.styles.Output.Render(l.text) + "\n")
	}

	b.WriteString(m.styles.Prompt.Render("> ") + m.input + "█\n")
	b.WriteString(m.styles.Status.Render(m.status()))
	return b.String()
}

func (m Model) status() string {
	frames := m.engine.Frames()
	pos := "no frames"
	if !frames.Empty() {
		pos = fmt.Sprintf("frame %d/%d", frames.Index()+1, frames.Len())
	}
	return fmt.Sprintf("%s  rev %d  ←→↑↓ rotate  pgup/pgdn zoom  ctrl+p/n history  esc quit",
		pos, m.engine.Settings().Revision)
}

// Input returns the text on the command line.
func (m Model) Input() string { return m.input }

// Run drives m until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
