// Package export writes board cards to CSV.
package export

import (
	"encoding/csv"
	"io"

	"github.com/dori/staffsphere/internal/model"
)

// Header is the first CSV row
var Header = []string{"id", "title", "status", "priority", "due_date", "assignee"}

// WriteCSV writes cards in the given order. Assignees are written by name
// when employees knows them, by ID otherwise.
func WriteCSV(w io.Writer, cards []model.Card, employees []model.Employee) error {
	names := model.EmployeeNames(employees)
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range cards {
		due := ""
		if c.DueDate != nil {
			due = c.DueDate.String()
		}
		assignee := c.AssignedTo
		if name, ok := names[assignee]; ok {
			assignee = name
		}
		record := []string{c.ID, c.Title, string(c.Status), string(c.Priority), due, assignee}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
