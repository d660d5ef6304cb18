package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/hexcaster/internal/hid"
)

func TestDispatchPressThenRelease(t *testing.T) {
	out := make(chan hid.Report, 4)
	shortcut, err := hid.ParseShortcut("ctrl+alt+h")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := New(out, shortcut, DefaultReleaseDelay, nil)

	start := time.Now()
	if err := d.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < DefaultReleaseDelay {
		t.Fatalf("expected at least %s between press and release, took %s", DefaultReleaseDelay, elapsed)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(out))
	}
	if press := <-out; press != shortcut {
		t.Fatalf("expected press %v, got %v", shortcut, press)
	}
	if release := <-out; !release.IsRelease() {
		t.Fatalf("expected release, got %v", release)
	}
}

func TestDispatchUsesBinding(t *testing.T) {
	out := make(chan hid.Report, 4)
	def, _ := hid.ParseShortcut("f13")
	bound, _ := hid.ParseShortcut("ctrl+c")
	d := New(out, def, 0, map[int]hid.Report{2: bound})
	if d.ShortcutFor(0) != def {
		t.Fatalf("expected default shortcut for unbound template")
	}
	if err := d.Dispatch(context.Background(), 2); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := <-out; got != bound {
		t.Fatalf("expected bound shortcut, got %v", got)
	}
}

func TestDispatchBlocksOnFullChannel(t *testing.T) {
	out := make(chan hid.Report)
	d := New(out, hid.Report{Modifier: hid.ModLeftCtrl}, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Dispatch(ctx, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
