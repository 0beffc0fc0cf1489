package ui

import (
	"testing"

	"tasklist/internal/storage"
)

type recordingThemed struct {
	applied []*Styles
}

func (r *recordingThemed) ApplyTheme(s *Styles) {
	r.applied = append(r.applied, s)
}

func TestThemeNotifier_RegisterAppliesImmediately(t *testing.T) {
	n := NewThemeNotifier(storage.ThemeDark, "")
	r := &recordingThemed{}

	n.Register(r)

	if len(r.applied) != 1 {
		t.Fatalf("ApplyTheme called %d times, want 1", len(r.applied))
	}
	if r.applied[0] != n.Styles() {
		t.Error("registered component did not receive the active styles")
	}
}

func TestThemeNotifier_SetModeNotifiesAll(t *testing.T) {
	n := NewThemeNotifier(storage.ThemeLight, "#123456")
	a, b := &recordingThemed{}, &recordingThemed{}
	n.Register(a)
	n.Register(b)

	n.SetMode(storage.ThemeDark)

	if n.Mode() != storage.ThemeDark {
		t.Errorf("Mode() = %q, want dark", n.Mode())
	}
	for i, r := range []*recordingThemed{a, b} {
		if len(r.applied) != 2 {
			t.Fatalf("listener %d: ApplyTheme called %d times, want 2", i, len(r.applied))
		}
		if r.applied[1] != n.Styles() {
			t.Errorf("listener %d: got stale styles", i)
		}
		if r.applied[1].ColorPrimary != "#123456" {
			t.Errorf("listener %d: accent lost on switch: %v", i, r.applied[1].ColorPrimary)
		}
	}
}

func TestThemeNotifier_SameModeIsNoop(t *testing.T) {
	n := NewThemeNotifier(storage.ThemeLight, "")
	r := &recordingThemed{}
	n.Register(r)
	before := n.Styles()

	n.SetMode(storage.ThemeLight)

	if len(r.applied) != 1 {
		t.Errorf("ApplyTheme called %d times, want 1", len(r.applied))
	}
	if n.Styles() != before {
		t.Error("styles rebuilt for unchanged mode")
	}
}

func TestOpposite(t *testing.T) {
	if got := Opposite(storage.ThemeLight); got != storage.ThemeDark {
		t.Errorf("Opposite(light) = %q", got)
	}
	if got := Opposite(storage.ThemeDark); got != storage.ThemeLight {
		t.Errorf("Opposite(dark) = %q", got)
	}
}
