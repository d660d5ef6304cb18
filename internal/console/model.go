// Package console provides a Bubble Tea stand-in for the serial link and the
// trackpad: typed lines become commands and mouse drags become position reports.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/hexcaster/internal/command"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

const (
	// padScale maps one terminal cell onto trackpad units.
	padScale     = 64
	padHeight    = 12
	maxLogLines  = 500
	chromeHeight = 2

	releaseRetryDelay = 10 * time.Millisecond
)

var (
	padStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6E6E6E")).
			Foreground(lipgloss.Color("#8C8C8C"))
	activePadStyle = padStyle.BorderForeground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// logMsg carries one line of diagnostic output into the program.
type logMsg string

// releaseRetryMsg asks the model to resend a pen-up that did not fit.
type releaseRetryMsg struct{}

// Model implements the console UI.
type Model struct {
	commands chan<- []byte
	reports  chan<- trackpad.Report

	logView viewport.Model
	input   textinput.Model
	lines   []string

	width  int
	height int

	drawing bool
	// pendingRelease is set while the pen-up sentinel is still unsent.
	// No new samples go out until it is delivered.
	pendingRelease bool
	lastMode       string
	samples  int
	dropped  int
}

// NewModel builds a console that writes submitted lines to commands and pad
// samples to reports. Neither send blocks the UI; full channels count as drops.
func NewModel(commands chan<- []byte, reports chan<- trackpad.Report, mode model.Mode) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "/learn, /cast, /greet name"
	input.CharLimit = 256
	input.Focus()
	return &Model{
		commands: commands,
		reports:  reports,
		logView:  viewport.New(0, 0),
		input:    input,
		lastMode: mode.String(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case logMsg:
		m.appendLog(string(msg))
		return m, nil
	case tea.MouseMsg:
		return m, m.handleMouse(tea.MouseEvent(msg))
	case releaseRetryMsg:
		return m, m.flushRelease()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	style := padStyle
	if m.drawing {
		style = activePadStyle
	}
	pad := style.
		Width(max(m.width-2, 1)).
		Height(padHeight - 2).
		Render("drag with the left button to draw a stroke")
	return strings.Join([]string{
		m.logView.View(),
		pad,
		m.input.View(),
		m.renderFooter(),
	}, "\n")
}

func (m *Model) updateLayout() {
	m.logView.Width = m.width
	m.logView.Height = max(m.height-padHeight-chromeHeight, 1)
	m.input.Width = max(m.width-lipgloss.Width(m.input.Prompt)-1, 1)
	m.refreshLog()
}

// padTop is the screen row of the pad's top border.
func (m *Model) padTop() int {
	return m.logView.Height
}

// padPoint converts a screen cell inside the pad border to trackpad units.
func (m *Model) padPoint(x, y int) (model.RawPoint, bool) {
	row := y - m.padTop() - 1
	col := x - 1
	if m.width == 0 || row < 0 || row >= padHeight-2 || col < 0 || col >= m.width-2 {
		return model.RawPoint{}, false
	}
	return model.RawPoint{X: uint16((col + 1) * padScale), Y: uint16((row + 1) * padScale)}, true
}

func (m *Model) handleMouse(ev tea.MouseEvent) tea.Cmd {
	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button != tea.MouseButtonLeft {
			return nil
		}
		if p, ok := m.padPoint(ev.X, ev.Y); ok {
			m.drawing = true
			return m.sendSample(p)
		}
	case tea.MouseActionMotion:
		if !m.drawing {
			return nil
		}
		if p, ok := m.padPoint(ev.X, ev.Y); ok {
			return m.sendSample(p)
		}
	case tea.MouseActionRelease:
		if m.drawing {
			m.drawing = false
			m.pendingRelease = true
			return m.flushRelease()
		}
	}
	return nil
}

// flushRelease sends the pending pen-up, scheduling a retry while the
// report channel stays full.
func (m *Model) flushRelease() tea.Cmd {
	if !m.pendingRelease {
		return nil
	}
	select {
	case m.reports <- trackpad.PositionReport(model.Sentinel):
		m.pendingRelease = false
		return nil
	default:
		return tea.Tick(releaseRetryDelay, func(time.Time) tea.Msg {
			return releaseRetryMsg{}
		})
	}
}

func (m *Model) sendSample(p model.RawPoint) tea.Cmd {
	if m.pendingRelease {
		if cmd := m.flushRelease(); cmd != nil {
			m.dropped++
			return cmd
		}
	}
	select {
	case m.reports <- trackpad.PositionReport(p):
		m.samples++
	default:
		m.dropped++
	}
	return nil
}

func (m *Model) submit() {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return
	}
	select {
	case m.commands <- []byte(line + "\r\n"):
	default:
		m.appendLog(warnStyle.Render("command dropped: link busy"))
		return
	}
	if cmd, err := command.Parse([]byte(line)); err == nil {
		switch cmd.Kind {
		case command.KindLearn:
			m.lastMode = model.ModeLearning.String()
		case command.KindCast:
			m.lastMode = model.ModeCasting.String()
		}
	}
}

func (m *Model) appendLog(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	width := m.logView.Width
	lines := make([]string, len(m.lines))
	for i, line := range m.lines {
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		lines[i] = line
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoBottom()
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Mode %s", m.lastMode),
		fmt.Sprintf("Samples %d", m.samples),
	}
	if m.dropped > 0 {
		segments = append(segments, fmt.Sprintf("Dropped %d", m.dropped))
	}
	segments = append(segments, "Esc quits")
	return footerStyle.Render(strings.Join(segments, " · "))
}
