package model

import (
	"fmt"
	"strings"
)

// Patch is a partial update keyed by JSON field name.
// A nil value clears optional fields (dueDate, assignedTo, description).
type Patch map[string]any

// StatusPatch moves a card to another column
func StatusPatch(s Status) Patch {
	return Patch{"status": string(s)}
}

// EditPatch carries every editable field of c except status
func EditPatch(c Card) Patch {
	p := Patch{
		"title":       c.Title,
		"description": c.Description,
		"priority":    string(c.Priority),
		"dueDate":     nil,
		"assignedTo":  nil,
	}
	if c.DueDate != nil && !c.DueDate.IsZero() {
		p["dueDate"] = c.DueDate.String()
	}
	if c.AssignedTo != "" {
		p["assignedTo"] = c.AssignedTo
	}
	return p
}

// Apply validates p and applies it to c. Nothing is written on error.
func (p Patch) Apply(c *Card, layout Layout) error {
	next := *c
	for field, raw := range p {
		switch field {
		case "title":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%w: title is required", ErrInvalid)
			}
			next.Title = strings.TrimSpace(s)
		case "description":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			next.Description = s
		case "status":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			if !layout.Has(Status(s)) {
				return fmt.Errorf("%w: status %q", ErrInvalid, s)
			}
			next.Status = Status(s)
		case "priority":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			if !Priority(s).Valid() {
				return fmt.Errorf("%w: priority %q", ErrInvalid, s)
			}
			next.Priority = Priority(s)
		case "dueDate":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			if s == "" {
				next.DueDate = nil
				continue
			}
			d, err := ParseDate(s)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalid, err)
			}
			next.DueDate = &d
		case "assignedTo":
			s, err := patchString(field, raw)
			if err != nil {
				return err
			}
			next.AssignedTo = s
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalid, field)
		}
	}
	*c = next
	return nil
}

func patchString(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: field %q must be a string", ErrInvalid, field)
	}
}

// Normalize prepares a new card for storage: it trims the title, drops an
// empty due date, fills in the first column and MEDIUM priority when missing,
// and rejects the rest.
func (c *Card) Normalize(layout Layout) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if c.Status == "" {
		c.Status = layout.Columns[0]
	}
	if !layout.Has(c.Status) {
		return fmt.Errorf("%w: status %q", ErrInvalid, c.Status)
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if !c.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalid, c.Priority)
	}
	if c.DueDate != nil && c.DueDate.IsZero() {
		c.DueDate = nil
	}
	return nil
}
