package console

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

func newSizedModel(t *testing.T) (*Model, chan []byte, chan trackpad.Report) {
	t.Helper()
	commands := make(chan []byte, 4)
	reports := make(chan trackpad.Report, 16)
	m := NewModel(commands, reports, model.ModeLearning)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	return m, commands, reports
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func readPoint(t *testing.T, reports chan trackpad.Report) model.RawPoint {
	t.Helper()
	select {
	case r := <-reports:
		p, ok, err := trackpad.ParseReport(r[:])
		if err != nil || !ok {
			t.Fatalf("unexpected report %v (ok=%v, err=%v)", r, ok, err)
		}
		return p
	default:
		t.Fatalf("expected a report")
		return model.RawPoint{}
	}
}

func TestMouseDragProducesStroke(t *testing.T) {
	m, _, reports := newSizedModel(t)
	top := m.padTop()

	m.Update(mouse(tea.MouseActionPress, 1, top+1))
	m.Update(mouse(tea.MouseActionMotion, 3, top+2))
	m.Update(mouse(tea.MouseActionRelease, 3, top+2))

	if p := readPoint(t, reports); p != (model.RawPoint{X: padScale, Y: padScale}) {
		t.Fatalf("unexpected first sample %v", p)
	}
	if p := readPoint(t, reports); p != (model.RawPoint{X: 3 * padScale, Y: 2 * padScale}) {
		t.Fatalf("unexpected second sample %v", p)
	}
	if p := readPoint(t, reports); !p.IsSentinel() {
		t.Fatalf("expected sentinel on release, got %v", p)
	}
	if m.samples != 2 {
		t.Fatalf("expected 2 samples counted, got %d", m.samples)
	}
}

func TestMouseOutsidePadIsIgnored(t *testing.T) {
	m, _, reports := newSizedModel(t)
	m.Update(mouse(tea.MouseActionPress, 5, 0))
	m.Update(mouse(tea.MouseActionMotion, 6, 1))
	m.Update(mouse(tea.MouseActionRelease, 6, 1))
	if len(reports) != 0 {
		t.Fatalf("expected no reports, got %d", len(reports))
	}
}

func TestFullReportChannelCountsDrops(t *testing.T) {
	commands := make(chan []byte, 1)
	reports := make(chan trackpad.Report)
	m := NewModel(commands, reports, model.ModeLearning)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	m.Update(mouse(tea.MouseActionPress, 2, m.padTop()+2))
	if m.dropped != 1 || m.samples != 0 {
		t.Fatalf("expected one drop, got dropped=%d samples=%d", m.dropped, m.samples)
	}
	if !strings.Contains(m.renderFooter(), "Dropped 1") {
		t.Fatalf("footer should report drops: %s", m.renderFooter())
	}
}

func TestReleaseIsRetriedUntilDelivered(t *testing.T) {
	commands := make(chan []byte, 1)
	reports := make(chan trackpad.Report, 2)
	m := NewModel(commands, reports, model.ModeLearning)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	top := m.padTop()

	m.Update(mouse(tea.MouseActionPress, 1, top+1))
	m.Update(mouse(tea.MouseActionMotion, 2, top+1))
	if _, cmd := m.Update(mouse(tea.MouseActionRelease, 2, top+1)); cmd == nil {
		t.Fatalf("expected a retry to be scheduled for the pen-up")
	}
	if !m.pendingRelease {
		t.Fatalf("pen-up should stay pending while the channel is full")
	}

	// A new drag must not join the previous stroke.
	m.Update(mouse(tea.MouseActionPress, 5, top+3))
	if m.dropped != 1 {
		t.Fatalf("expected the new sample to be dropped, got dropped=%d", m.dropped)
	}

	readPoint(t, reports)
	m.Update(releaseRetryMsg{})
	if m.pendingRelease {
		t.Fatalf("pen-up should be delivered once there is room")
	}
	if p := readPoint(t, reports); p != (model.RawPoint{X: 2 * padScale, Y: padScale}) {
		t.Fatalf("unexpected sample %v", p)
	}
	if p := readPoint(t, reports); !p.IsSentinel() {
		t.Fatalf("expected sentinel, got %v", p)
	}

	m.Update(mouse(tea.MouseActionMotion, 6, top+3))
	if p := readPoint(t, reports); p != (model.RawPoint{X: 6 * padScale, Y: 3 * padScale}) {
		t.Fatalf("expected the new drag to continue after the pen-up, got %v", p)
	}
}

func TestSubmitSendsCommandLine(t *testing.T) {
	m, commands, _ := newSizedModel(t)
	m.input.SetValue("/cast")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case line := <-commands:
		if string(line) != "/cast\r\n" {
			t.Fatalf("unexpected command line %q", line)
		}
	default:
		t.Fatalf("expected a command line")
	}
	if m.input.Value() != "" {
		t.Fatalf("input should be cleared")
	}
	if !strings.Contains(m.renderFooter(), "Mode cast") {
		t.Fatalf("footer should show requested mode: %s", m.renderFooter())
	}
}

func TestLogLinesAreTruncatedToWidth(t *testing.T) {
	m, _, _ := newSizedModel(t)
	m.Update(logMsg(strings.Repeat("x", 100)))
	if len(m.lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(m.lines))
	}
	if !strings.Contains(m.logView.View(), "…") {
		t.Fatalf("expected truncated line in view")
	}
}

func TestLogWriterSplitsLines(t *testing.T) {
	var got []string
	w := NewLogWriter(func(msg tea.Msg) {
		got = append(got, string(msg.(logMsg)))
	})
	if _, err := w.Write([]byte("first\nsec")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("ond\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected lines %q", got)
	}
}
