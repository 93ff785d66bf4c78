package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dori/staffsphere/internal/board"
	"github.com/dori/staffsphere/internal/model"
	"github.com/fatih/color"
)

func TestPrintBoard(t *testing.T) {
	color.NoColor = true
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cards := []model.Card{
		{ID: "t1", Title: "Order laptops", Status: model.StatusToDo, Priority: model.PriorityHigh, DueDate: model.MustDate("2024-06-08"), AssignedTo: "e1"},
		{ID: "t2", Title: "Send welcome pack", Status: model.StatusDone, Priority: model.PriorityLow, DueDate: model.MustDate("2024-06-01")},
	}

	var buf bytes.Buffer
	cols := board.View(cards, board.DefaultFilter(), model.TaskLayout, today)
	printBoard(&buf, cols, model.TaskLayout, map[string]string{"e1": "Ben Okafor"}, today)

	want := strings.Join([]string{
		"To Do (1)",
		"  ▲ Order laptops  due 2024-06-08 (overdue)  @Ben Okafor  t1",
		"",
		"In Progress (0)",
		"  (empty)",
		"",
		"Done (1)",
		"  ▽ Send welcome pack  due 2024-06-01  t2",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("printBoard output:\n%s\nwant:\n%s", got, want)
	}
}

func TestQueryFilter(t *testing.T) {
	employees := []model.Employee{{ID: "e1", Name: "Ana Silva"}}

	q := queryFlags{priority: "high", assignee: "ana silva", sort: "title", desc: true}
	f, err := q.filter(employees)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if f.Priority != model.PriorityHigh || f.Assignee != "e1" {
		t.Errorf("got priority %q assignee %q", f.Priority, f.Assignee)
	}
	if f.Sort != (board.Sort{Field: board.SortTitle, Desc: true}) {
		t.Errorf("got sort %+v", f.Sort)
	}

	for _, bad := range []queryFlags{
		{sort: "size"},
		{sort: "due", priority: "urgent"},
		{sort: "due", assignee: "nobody"},
	} {
		if _, err := bad.filter(employees); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}

	if (queryFlags{}).kind() != model.KindProject || (queryFlags{project: "p1"}).kind() != model.KindTask {
		t.Error("kind should follow --project")
	}
}
