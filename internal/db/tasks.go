package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dori/staffsphere/internal/model"
	"github.com/google/uuid"
)

const taskColumns = `id, project_id, title, description, status, priority,
	due_date, assigned_to, created_at, updated_at`

// ListTasks returns the tasks of a project in creation order.
// An unknown project yields model.ErrNotFound.
func (db *DB) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if err := db.projectExists(ctx, db.DB, projectID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at, rowid
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask returns a single task by ID
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return t, err
}

// CreateTask validates t, assigns its ID and timestamps, and stores it
func (db *DB) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if err := t.Normalize(model.TaskLayout); err != nil {
		return model.Task{}, err
	}
	if err := db.projectExists(ctx, db.DB, t.ProjectID); err != nil {
		return model.Task{}, err
	}

	now := time.Now().UTC()
	t.ID = uuid.New().String()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority,
		dateValue(t.DueDate), nullable(t.AssignedTo), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// UpdateTask applies patch to a task inside one transaction
func (db *DB) UpdateTask(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	var updated model.Task
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
		t, err := scanTaskRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := patch.Apply(&t.Card, model.TaskLayout); err != nil {
			return err
		}
		t.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, description = ?, status = ?, priority = ?,
			    due_date = ?, assigned_to = ?, updated_at = ?
			WHERE id = ?
		`, t.Title, t.Description, t.Status, t.Priority,
			dateValue(t.DueDate), nullable(t.AssignedTo), t.UpdatedAt, id)
		if err != nil {
			return err
		}
		updated = *t
		return nil
	})
	return updated, err
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// Helper functions

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTaskRow(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate, assignedTo *string

	err := s.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &assignedTo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo != nil {
		t.AssignedTo = *assignedTo
	}
	if t.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	return &t, nil
}
