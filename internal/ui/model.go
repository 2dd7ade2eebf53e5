// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Renders stream state and position and turns keys into control requests
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Device
	backend string
	latency time.Duration

	// Stream
	format   string
	rate     int
	channels int
	state    string
	position uint64
	lastErr  string

	// Metadata
	title  string
	artist string
	album  string

	// Playback
	volume   int
	muted    bool
	unmuteTo int

	// Stats
	underruns uint64
	buffered  time.Duration

	controls *Controls

	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields leave the model unchanged.
type StatusMsg struct {
	Backend  string
	Latency  time.Duration
	Format   string
	Rate     int
	Channels int
	State    string
	Position uint64
	Err      string

	Title  string
	Artist string
	Album  string

	Underruns uint64
	Buffered  time.Duration
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStreamInfo())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	backend := m.backend
	if backend == "" {
		backend = "(none)"
	}
	return fmt.Sprintf(`┌─ cubeb player ───────────────────────────────────────┐
│ Backend: %-43s │
│ State:   %s %-41s │
├──────────────────────────────────────────────────────┤
`, truncate(backend, 43), stateIcon(m.state), truncate(m.stateText(), 41))
}

func (m Model) stateText() string {
	if m.lastErr != "" {
		return m.state + ": " + m.lastErr
	}
	return m.state
}

func (m Model) renderStreamInfo() string {
	s := "│ Now Playing:                                         │\n"
	if m.title != "" {
		s += fmt.Sprintf("│   Track:  %-42s │\n", truncate(m.title, 42))
		s += fmt.Sprintf("│   Artist: %-42s │\n", truncate(m.artist, 42))
		s += fmt.Sprintf("│   Album:  %-42s │\n", truncate(m.album, 42))
	} else {
		s += "│   (No metadata)                                      │\n"
	}

	s += "│                                                      │\n"
	if m.format != "" {
		format := fmt.Sprintf("%s %dHz %s", m.format, m.rate, channelName(m.channels))
		s += fmt.Sprintf("│ Format:   %-42s │\n", format)
	}
	s += fmt.Sprintf("│ Position: %-42s │\n", m.positionText())
	return s
}

func (m Model) positionText() string {
	if m.rate == 0 {
		return fmt.Sprintf("%d frames", m.position)
	}
	elapsed := time.Duration(m.position) * time.Second / time.Duration(m.rate)
	return fmt.Sprintf("%s (%d frames)", formatDuration(elapsed), m.position)
}

func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}

	volumeBar := renderBar(m.volume, 100, 10)
	volume := fmt.Sprintf("[%s] %d%%%s", volumeBar, m.volume, muteIcon)
	buffer := fmt.Sprintf("%dms latency, %dms decoded, %d underruns",
		m.latency.Milliseconds(), m.buffered.Milliseconds(), m.underruns)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: %-44s │\n"+
		"│ Buffer: %-44s │\n"+
		"├──────────────────────────────────────────────────────┤\n",
		volume, truncate(buffer, 44))
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  space:Start/Stop  m:Mute  q:Quit         │
└──────────────────────────────────────────────────────┘
`
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.quit()
		return m, tea.Quit
	case "up":
		m.muted = false
		m.volume = min(m.volume+5, 100)
		m.controls.setVolume(m.volume)
	case "down":
		m.muted = false
		m.volume = max(m.volume-5, 0)
		m.controls.setVolume(m.volume)
	case "m":
		if m.muted {
			m.muted = false
			m.volume = m.unmuteTo
		} else {
			m.muted = true
			m.unmuteTo = m.volume
			m.volume = 0
		}
		m.controls.setVolume(m.volume)
	case " ":
		m.controls.toggle()
	}

	return m, nil
}

func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.Latency != 0 {
		m.latency = msg.Latency
	}
	if msg.Format != "" {
		m.format = msg.Format
		m.rate = msg.Rate
		m.channels = msg.Channels
	}
	if msg.State != "" {
		m.state = msg.State
		m.lastErr = msg.Err
	}
	// Position is monotonic per stream.
	if msg.Position > m.position {
		m.position = msg.Position
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.artist = msg.Artist
		m.album = msg.Album
	}
	if msg.Underruns != 0 {
		m.underruns = msg.Underruns
	}
	if msg.Buffered != 0 {
		m.buffered = msg.Buffered
	}
}

// SetVolume sets the displayed volume in percent without sending a request.
func (m *Model) SetVolume(percent int) {
	m.volume = min(max(percent, 0), 100)
}

func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

func stateIcon(state string) string {
	switch state {
	case "started":
		return "▶"
	case "stopped", "created":
		return "■"
	case "drained":
		return "✓"
	case "error":
		return "✗"
	default:
		return " "
	}
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
