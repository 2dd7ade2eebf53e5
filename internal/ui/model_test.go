// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Controls are optional for testing

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}

	if model.muted {
		t.Error("expected muted to be false initially")
	}

	if model.state != "created" {
		t.Errorf("expected state 'created', got '%s'", model.state)
	}
}

func TestStatusMsgStreamInfo(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Backend:  "pipe",
		Latency:  50 * time.Millisecond,
		Format:   "s16le",
		Rate:     48000,
		Channels: 2,
	})

	if model.backend != "pipe" {
		t.Errorf("expected backend 'pipe', got '%s'", model.backend)
	}
	if model.format != "s16le" || model.rate != 48000 || model.channels != 2 {
		t.Errorf("unexpected format %s %d %d", model.format, model.rate, model.channels)
	}
	if model.latency != 50*time.Millisecond {
		t.Errorf("expected 50ms latency, got %v", model.latency)
	}
}

func TestStatusMsgState(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{State: "error", Err: "device lost"})
	if model.state != "error" || model.lastErr != "device lost" {
		t.Errorf("unexpected state %q %q", model.state, model.lastErr)
	}

	// A new state clears the old error.
	model.applyStatus(StatusMsg{State: "stopped"})
	if model.lastErr != "" {
		t.Errorf("expected error cleared, got %q", model.lastErr)
	}
}

func TestStatusMsgPositionMonotonic(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{Position: 4800})
	model.applyStatus(StatusMsg{Position: 2400})

	if model.position != 4800 {
		t.Errorf("expected position to stay at 4800, got %d", model.position)
	}
}

func TestStatusMsgMetadata(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{Title: "Test Song", Artist: "Test Artist", Album: "Test Album"})

	if model.title != "Test Song" || model.artist != "Test Artist" || model.album != "Test Album" {
		t.Errorf("unexpected metadata %q %q %q", model.title, model.artist, model.album)
	}
}

func TestVolumeKeys(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		keys     []tea.KeyMsg
		expected int
	}{
		{"up at max", 100, []tea.KeyMsg{{Type: tea.KeyUp}}, 100},
		{"down", 100, []tea.KeyMsg{{Type: tea.KeyDown}}, 95},
		{"down at min", 0, []tea.KeyMsg{{Type: tea.KeyDown}}, 0},
		{"up clamps", 98, []tea.KeyMsg{{Type: tea.KeyUp}}, 100},
		{"down then up", 50, []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyUp}}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewControls()
			model := NewModel(ctrl)
			model.volume = tt.start

			var m tea.Model = model
			for _, k := range tt.keys {
				m, _ = m.Update(k)
			}

			got := m.(Model).volume
			if got != tt.expected {
				t.Errorf("expected volume %d, got %d", tt.expected, got)
			}
			if len(ctrl.Volume) != len(tt.keys) {
				t.Errorf("expected %d volume requests, got %d", len(tt.keys), len(ctrl.Volume))
			}
		})
	}
}

func TestMuteRestoresVolume(t *testing.T) {
	ctrl := NewControls()
	var m tea.Model = NewModel(ctrl)
	mute := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(mute)
	if got := m.(Model); !got.muted || got.volume != 0 {
		t.Fatalf("expected muted at 0, got muted=%v volume=%d", got.muted, got.volume)
	}
	m, _ = m.Update(mute)
	if got := m.(Model); got.muted || got.volume != 95 {
		t.Errorf("expected unmuted at 95, got muted=%v volume=%d", got.muted, got.volume)
	}

	var last int
	for len(ctrl.Volume) > 0 {
		last = <-ctrl.Volume
	}
	if last != 95 {
		t.Errorf("expected last request 95, got %d", last)
	}
}

func TestToggleAndQuit(t *testing.T) {
	ctrl := NewControls()
	var m tea.Model = NewModel(ctrl)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	// A second toggle while the first is pending is dropped.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if len(ctrl.Toggle) != 1 {
		t.Errorf("expected one pending toggle, got %d", len(ctrl.Toggle))
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if len(ctrl.Quit) != 1 {
		t.Error("expected a quit request")
	}
}

func TestKeysWithoutControls(t *testing.T) {
	var m tea.Model = NewModel(nil)
	for _, k := range []tea.KeyMsg{{Type: tea.KeyUp}, {Type: tea.KeySpace}, {Type: tea.KeyCtrlC}} {
		m, _ = m.Update(k)
	}
}

func TestView(t *testing.T) {
	model := NewModel(nil)
	if model.View() != "Loading..." {
		t.Error("expected loading view before the first resize")
	}

	var m tea.Model = model
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(StatusMsg{
		Backend: "null", Format: "s16le", Rate: 48000, Channels: 2,
		State: "started", Position: 96000, Title: "Test Tone",
	})

	view := m.View()
	for _, want := range []string{"null", "started", "Test Tone", "0:02 (96000 frames)", "Stereo"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value    int
		expected string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 10); got != tt.expected {
			t.Errorf("renderBar(%d) = %q, expected %q", tt.value, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.length); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", tt.input, tt.length, got, tt.expected)
		}
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "6ch"},
	}

	for _, tt := range tests {
		if got := channelName(tt.channels); got != tt.expected {
			t.Errorf("channelName(%d) = %q, expected %q", tt.channels, got, tt.expected)
		}
	}
}
