// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user requests from the TUI to the player. Sends never
// block; a request is dropped when the player is behind.
type Controls struct {
	// Volume receives the requested volume in percent.
	Volume chan int
	// Toggle asks the player to start a stopped stream or stop a running one.
	Toggle chan struct{}
	Quit   chan struct{}
}

// NewControls creates a control handler
func NewControls() *Controls {
	return &Controls{
		Volume: make(chan int, 10),
		Toggle: make(chan struct{}, 1),
		Quit:   make(chan struct{}, 1),
	}
}

func (c *Controls) setVolume(v int) {
	if c == nil {
		return
	}
	select {
	case c.Volume <- v:
	default:
	}
}

func (c *Controls) toggle() {
	if c == nil {
		return
	}
	select {
	case c.Toggle <- struct{}{}:
	default:
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls) Model {
	return Model{
		volume:   100,
		state:    "created",
		controls: ctrl,
	}
}

// Run creates the TUI program. The caller runs it and feeds it StatusMsg
// values with Send.
func Run(ctrl *Controls) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}
