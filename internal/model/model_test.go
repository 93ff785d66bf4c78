package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateJSONAcceptsTimestamps(t *testing.T) {
	var c Card
	if err := json.Unmarshal([]byte(`{"id":"1","dueDate":"2024-03-05T23:30:00Z"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.DueDate == nil || c.DueDate.String() != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %v", c.DueDate)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	json.Unmarshal(out, &back)
	if back["dueDate"] != "2024-03-05" {
		t.Fatalf("expected date-only form, got %v", back["dueDate"])
	}
}

func TestCardIsOverdueIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)
	c := Card{Status: StatusToDo, DueDate: MustDate("2024-01-02")}
	if c.IsOverdue(today, StatusDone) {
		t.Fatal("a card due today is not overdue")
	}
	c.DueDate = MustDate("2024-01-01")
	if !c.IsOverdue(today, StatusDone) {
		t.Fatal("expected card due yesterday to be overdue")
	}
	c.Status = StatusDone
	if c.IsOverdue(today, StatusDone) {
		t.Fatal("a finished card is never overdue")
	}
}

func TestPatchApply(t *testing.T) {
	c := Card{ID: "1", Title: "Old", Status: StatusToDo, Priority: PriorityLow, AssignedTo: "e1"}

	err := Patch{"status": "DONE", "dueDate": "2024-05-01", "assignedTo": nil}.Apply(&c, TaskLayout)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Status != StatusDone || c.DueDate.String() != "2024-05-01" || c.AssignedTo != "" {
		t.Fatalf("unexpected card after patch: %+v", c)
	}

	before := c
	if err := (Patch{"title": "  ", "status": "TO_DO"}).Apply(&c, TaskLayout); err == nil {
		t.Fatal("expected empty title to be rejected")
	}
	if c != before {
		t.Fatalf("card changed on failed patch: %+v", c)
	}

	if err := (Patch{"status": "Ongoing"}).Apply(&c, TaskLayout); err == nil {
		t.Fatal("expected project status to be rejected on a task")
	}
	if err := (Patch{"color": "red"}).Apply(&c, TaskLayout); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestEditPatchRoundTrip(t *testing.T) {
	c := Card{Title: "Write report", Priority: PriorityHigh, DueDate: MustDate("2024-02-10"), AssignedTo: "e2"}
	var target Card
	if err := EditPatch(c).Apply(&target, TaskLayout); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if target.Title != c.Title || target.Priority != c.Priority || *target.DueDate != *c.DueDate || target.AssignedTo != "e2" {
		t.Fatalf("edit patch lost fields: %+v", target)
	}
}

func TestCardNormalize(t *testing.T) {
	c := Card{Title: "  Hire designer "}
	if err := c.Normalize(ProjectLayout); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Title != "Hire designer" || c.Status != StatusPending || c.Priority != PriorityMedium {
		t.Fatalf("unexpected defaults: %+v", c)
	}

	bad := Card{Title: "x", Status: StatusDone}
	if err := bad.Normalize(ProjectLayout); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestEmptyDueDateDecodesAsNoDate(t *testing.T) {
	var c Card
	if err := json.Unmarshal([]byte(`{"title":"Book room","dueDate":""}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := c.Normalize(TaskLayout); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.DueDate != nil {
		t.Fatalf("expected no due date, got %v", c.DueDate)
	}

	if err := json.Unmarshal([]byte(`{"dueDate":"soon"}`), &c); err == nil {
		t.Fatal("expected an error for a malformed date")
	}
}
