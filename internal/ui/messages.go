package ui

import (
	"github.com/dori/staffsphere/internal/model"
)

// View represents the board on screen
type View int

const (
	ViewTasks View = iota
	ViewProjects
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewTasks:
		return "Tasks"
	case ViewProjects:
		return "Projects"
	default:
		return "Unknown"
	}
}

// resyncTickMsg is sent every client.resync_interval
type resyncTickMsg struct{}

// feedEventMsg carries one change from the server feed
type feedEventMsg struct {
	Event model.Event
}

// feedClosedMsg is sent once when the feed stops
type feedClosedMsg struct {
	Err error
}
