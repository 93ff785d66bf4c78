package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/staffsphere/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustProject(t *testing.T, db *DB, title string) model.Project {
	t.Helper()
	p, err := db.CreateProject(context.Background(), model.Project{Card: model.Card{Title: title}})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

func mustTask(t *testing.T, db *DB, projectID, title string) model.Task {
	t.Helper()
	task, err := db.CreateTask(context.Background(), model.Task{
		Card:      model.Card{Title: title},
		ProjectID: projectID,
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := mustProject(t, db, "Onboarding")

	first := mustTask(t, db, p.ID, "Order laptop")
	second := mustTask(t, db, p.ID, "Create accounts")

	if first.Status != model.StatusToDo || first.Priority != model.PriorityMedium {
		t.Fatalf("unexpected defaults: %+v", first.Card)
	}

	tasks, err := db.ListTasks(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Fatalf("expected tasks in creation order, got %+v", tasks)
	}

	updated, err := db.UpdateTask(ctx, first.ID, model.Patch{
		"status":     "IN_PROGRESS",
		"dueDate":    "2024-04-02",
		"assignedTo": "emp-1",
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != model.StatusInProgress || updated.DueDate.String() != "2024-04-02" {
		t.Fatalf("patch not applied: %+v", updated.Card)
	}

	got, err := db.GetTask(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.AssignedTo != "emp-1" || got.DueDate == nil || *got.DueDate != *updated.DueDate {
		t.Fatalf("stored task differs: %+v", got.Card)
	}

	cleared, err := db.UpdateTask(ctx, first.ID, model.Patch{"dueDate": nil, "assignedTo": nil})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if cleared.DueDate != nil || cleared.AssignedTo != "" {
		t.Fatalf("expected cleared fields: %+v", cleared.Card)
	}

	if err := db.DeleteTask(ctx, second.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := db.DeleteTask(ctx, second.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdateTaskRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := mustProject(t, db, "Payroll")
	task := mustTask(t, db, p.ID, "Run payroll")

	_, err := db.UpdateTask(ctx, task.ID, model.Patch{"status": "Completed"})
	if !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	got, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != model.StatusToDo {
		t.Fatalf("task changed after rejected patch: %+v", got.Card)
	}

	if _, err := db.UpdateTask(ctx, "missing", model.StatusPatch(model.StatusDone)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTasksRequireProject(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.ListTasks(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound listing unknown project, got %v", err)
	}
	_, err := db.CreateTask(ctx, model.Task{Card: model.Card{Title: "Orphan"}, ProjectID: "nope"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound creating orphan task, got %v", err)
	}
}

func TestProjectCountsAndCascade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := mustProject(t, db, "Hiring")
	mustProject(t, db, "Offsite")

	a := mustTask(t, db, p.ID, "Post job")
	mustTask(t, db, p.ID, "Screen candidates")
	if _, err := db.UpdateTask(ctx, a.ID, model.StatusPatch(model.StatusDone)); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	projects, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].TaskCount != 2 || projects[0].CompletedCount != 1 {
		t.Fatalf("unexpected counts: %d/%d", projects[0].CompletedCount, projects[0].TaskCount)
	}
	if projects[0].Status != model.StatusPending {
		t.Fatalf("expected Pending default, got %s", projects[0].Status)
	}

	moved, err := db.UpdateProject(ctx, p.ID, model.StatusPatch(model.StatusOngoing))
	if err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	if moved.Status != model.StatusOngoing {
		t.Fatalf("expected Ongoing, got %s", moved.Status)
	}

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := db.GetTask(ctx, a.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected task to be deleted with its project, got %v", err)
	}
}

func TestEmployees(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, name := range []string{"zoe", "Adam", "mia"} {
		if _, err := db.CreateEmployee(ctx, model.Employee{Name: name, Department: "Ops"}); err != nil {
			t.Fatalf("CreateEmployee failed: %v", err)
		}
	}
	if _, err := db.CreateEmployee(ctx, model.Employee{Name: " "}); !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank name, got %v", err)
	}

	employees, err := db.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	var names []string
	for _, e := range employees {
		names = append(names, e.Name)
	}
	if len(names) != 3 || names[0] != "Adam" || names[1] != "mia" || names[2] != "zoe" {
		t.Fatalf("unexpected order: %v", names)
	}
}

// TestQueriesAfterIterationNoDeadlock guards the single-connection pool:
// every store method must close its rows before the next query runs.
func TestQueriesAfterIterationNoDeadlock(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	for i := 0; i < 3; i++ {
		p := mustProject(t, db, "Project")
		for j := 0; j < 3; j++ {
			mustTask(t, db, p.ID, "Task")
		}
	}

	done := make(chan error, 1)
	go func() {
		projects, err := db.ListProjects(ctx)
		if err != nil {
			done <- err
			return
		}
		for _, p := range projects {
			tasks, err := db.ListTasks(ctx, p.ID)
			if err != nil {
				done <- err
				return
			}
			for _, task := range tasks {
				if _, err := db.UpdateTask(ctx, task.ID, model.StatusPatch(model.StatusDone)); err != nil {
					done <- err
					return
				}
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("store call failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}

func TestReopenKeepsSchemaAndCards(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p, err := first.CreateProject(ctx, model.Project{Card: model.Card{Title: "Payroll", DueDate: &model.Date{}}})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	version, err := second.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}

	got, err := second.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.DueDate != nil {
		t.Fatalf("an empty due date is stored as NULL, got %v", got.DueDate)
	}
}
