package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the minimal shared application state decoupled from the UI model.
type State struct {
	ServerHealth  *HealthPayload
	ServerOnline  bool
	VersionNotice string
}

// StateUpdateMsg is emitted by the controller to notify the UI of state changes.
type StateUpdateMsg struct {
	NewState State
	Notice   string
}

// Controller owns data/state updates and produces Tea messages for the UI.
type Controller struct {
	state            State
	minServerVersion string
	versionWarned    bool
}

func NewController(initial State, minServerVersion string) *Controller {
	return &Controller{state: initial, minServerVersion: minServerVersion}
}

// UpdateServerHealth stores the latest health snapshot and notifies the UI.
// The first incompatible server version also produces a one-time notice.
func (c *Controller) UpdateServerHealth(h *HealthPayload) tea.Cmd {
	c.state.ServerHealth = h
	c.state.ServerOnline = h != nil && h.Status == "healthy"

	notice := ""
	if h != nil && !c.versionWarned {
		if ok, reason := checkServerCompatibility(h.Version, c.minServerVersion); !ok {
			c.versionWarned = true
			c.state.VersionNotice = reason
			notice = "⚠ " + reason
		}
	}

	state := c.state
	return func() tea.Msg { return StateUpdateMsg{NewState: state, Notice: notice} }
}
