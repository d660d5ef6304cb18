package console

import (
	"bytes"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter forwards complete lines to a running program. Pass
// (*tea.Program).Send as send.
type LogWriter struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	partial []byte
}

// NewLogWriter returns a writer that delivers each line through send.
func NewLogWriter(send func(tea.Msg)) *LogWriter {
	return &LogWriter{send: send}
}

// Write implements io.Writer.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial = append(w.partial, p...)
	for {
		idx := bytes.IndexByte(w.partial, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(w.partial[:idx], "\r"))
		w.partial = w.partial[idx+1:]
		w.send(logMsg(line))
	}
	return len(p), nil
}
