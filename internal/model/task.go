package model

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when an entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps every rejected field value
	ErrInvalid = errors.New("invalid")
)

// Status is the board column a card currently sits in
type Status string

const (
	StatusToDo       Status = "TO_DO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"

	StatusPending   Status = "Pending"
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
)

// Label returns a human readable column name
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Priority represents card priority level
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Priorities lists priorities from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Weight returns a numeric weight for sorting by priority.
// Unknown values weigh less than LOW.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Next cycles low -> medium -> high -> low
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// Card is the part of a task or project that a board works with.
type Card struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"dueDate,omitempty"`
	AssignedTo  string   `json:"assignedTo,omitempty"` // Employee ID
}

// IsOverdue returns true if the card is due before today and not finished
func (c *Card) IsOverdue(today time.Time, done Status) bool {
	if c.DueDate == nil || c.Status == done {
		return false
	}
	return c.DueDate.Before(DateOf(today))
}

// IsDueToday returns true if the card is due today
func (c *Card) IsDueToday(today time.Time) bool {
	if c.DueDate == nil {
		return false
	}
	return *c.DueDate == DateOf(today)
}

// Task is a unit of work inside a project
type Task struct {
	Card
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Kind identifies which entity a board shows
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// Layout is the fixed column order of a board plus its finished status
type Layout struct {
	Kind    Kind
	Columns []Status
	Done    Status
}

// TaskLayout is the board layout for tasks of one project
var TaskLayout = Layout{
	Kind:    KindTask,
	Columns: []Status{StatusToDo, StatusInProgress, StatusDone},
	Done:    StatusDone,
}

// ProjectLayout is the board layout for projects
var ProjectLayout = Layout{
	Kind:    KindProject,
	Columns: []Status{StatusPending, StatusOngoing, StatusCompleted},
	Done:    StatusCompleted,
}

// LayoutFor returns the layout of a board kind
func LayoutFor(kind Kind) Layout {
	if kind == KindProject {
		return ProjectLayout
	}
	return TaskLayout
}

// Has reports whether s is one of the layout's columns
func (l Layout) Has(s Status) bool {
	return l.Index(s) >= 0
}

// Index returns the column index of s, or -1
func (l Layout) Index(s Status) int {
	for i, c := range l.Columns {
		if c == s {
			return i
		}
	}
	return -1
}
