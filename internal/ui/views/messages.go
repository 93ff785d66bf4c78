package views

import (
	"github.com/dori/staffsphere/internal/model"
)

// Targeted is implemented by messages that belong to one board, so the root
// model can deliver them even when another board is on screen.
type Targeted interface {
	Target() model.Kind
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}

// OpenProjectRequest asks the root model to show a project's task board
type OpenProjectRequest struct {
	ProjectID string
	Title     string
}

// boardLoadedMsg is sent when a fetch of a board finished. full marks a
// load that reset the selection; fetched reports whether the cards arrived.
type boardLoadedMsg struct {
	kind      model.Kind
	parentID  string
	title     string
	full      bool
	fetched   bool
	employees []model.Employee
	err       error
}

func (m boardLoadedMsg) Target() model.Kind { return m.kind }

// mutationDoneMsg is sent when the server half of a change finished
type mutationDoneMsg struct {
	kind model.Kind
	op   string
	err  error
}

func (m mutationDoneMsg) Target() model.Kind { return m.kind }
