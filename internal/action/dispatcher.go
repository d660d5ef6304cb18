// Package action turns confident matches into keyboard shortcuts.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/hexcaster/internal/hid"
)

// DefaultReleaseDelay is the time a shortcut is held before release.
const DefaultReleaseDelay = 250 * time.Millisecond

// Dispatcher emits a press report, waits, then emits a release report.
type Dispatcher struct {
	out      chan<- hid.Report
	delay    time.Duration
	shortcut hid.Report
	bindings map[int]hid.Report
}

// New returns a Dispatcher writing to out. Templates without a binding use shortcut.
func New(out chan<- hid.Report, shortcut hid.Report, delay time.Duration, bindings map[int]hid.Report) *Dispatcher {
	if delay < 0 {
		delay = 0
	}
	b := make(map[int]hid.Report, len(bindings))
	for k, v := range bindings {
		b[k] = v
	}
	return &Dispatcher{out: out, delay: delay, shortcut: shortcut, bindings: b}
}

// ShortcutFor returns the report sent when template matches.
func (d *Dispatcher) ShortcutFor(template int) hid.Report {
	if r, ok := d.bindings[template]; ok {
		return r
	}
	return d.shortcut
}

// Dispatch sends the chord bound to template. It blocks while the report
// channel is full and for the release delay.
func (d *Dispatcher) Dispatch(ctx context.Context, template int) error {
	if err := d.send(ctx, d.ShortcutFor(template)); err != nil {
		return fmt.Errorf("failed to send key press: %w", err)
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if err := d.send(ctx, hid.Release); err != nil {
		return fmt.Errorf("failed to send key release: %w", err)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, r hid.Report) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.out <- r:
		return nil
	}
}
