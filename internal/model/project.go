package model

import (
	"time"
)

// Project groups tasks; it sits on the project board as a card
type Project struct {
	Card
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Computed fields (not stored)
	TaskCount      int `json:"taskCount,omitempty"`
	CompletedCount int `json:"completedCount,omitempty"`
}

// Employee is the assignee side-loaded by boards
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// EmployeeNames maps employee IDs to display names
func EmployeeNames(employees []Employee) map[string]string {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	return names
}

// Event is a change notification pushed over the websocket feed
type Event struct {
	Type     string `json:"type"` // created, updated, deleted
	Kind     Kind   `json:"kind"`
	ParentID string `json:"parentId,omitempty"`
	ID       string `json:"id"`
}
