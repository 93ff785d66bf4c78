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

// ListProjects returns all projects with their task counts
func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.title, p.description, p.status, p.priority, p.due_date,
		       p.assigned_to, p.department, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id) as task_count,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id AND status = 'DONE') as completed_count
		FROM projects p
		ORDER BY p.created_at, p.rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProjectRow(rows, true)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetProject returns a single project by ID
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return getProject(ctx, db.DB, id)
}

// CreateProject validates p, assigns its ID and timestamps, and stores it
func (db *DB) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if err := p.Normalize(model.ProjectLayout); err != nil {
		return model.Project{}, err
	}

	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TaskCount, p.CompletedCount = 0, 0

	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, status, priority, due_date,
		                      assigned_to, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Description, p.Status, p.Priority, dateValue(p.DueDate),
		nullable(p.AssignedTo), p.Department, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to insert project: %w", err)
	}
	return p, nil
}

// UpdateProject applies patch to a project inside one transaction
func (db *DB) UpdateProject(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	var updated model.Project
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		p, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := patch.Apply(&p.Card, model.ProjectLayout); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE projects
			SET title = ?, description = ?, status = ?, priority = ?,
			    due_date = ?, assigned_to = ?, updated_at = ?
			WHERE id = ?
		`, p.Title, p.Description, p.Status, p.Priority,
			dateValue(p.DueDate), nullable(p.AssignedTo), p.UpdatedAt, id)
		if err != nil {
			return err
		}
		updated = *p
		return nil
	})
	return updated, err
}

// DeleteProject deletes a project and, through the foreign key, its tasks
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (db *DB) projectExists(ctx context.Context, q querier, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %q: %w", id, model.ErrNotFound)
	}
	return nil
}

func getProject(ctx context.Context, q querier, id string) (*model.Project, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, due_date,
		       assigned_to, department, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	p, err := scanProjectRow(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return p, err
}

func scanProjectRow(s scanner, withCounts bool) (*model.Project, error) {
	var p model.Project
	var dueDate, assignedTo *string

	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority, &dueDate,
		&assignedTo, &p.Department, &p.CreatedAt, &p.UpdatedAt,
	}
	if withCounts {
		dest = append(dest, &p.TaskCount, &p.CompletedCount)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if assignedTo != nil {
		p.AssignedTo = *assignedTo
	}
	var err error
	if p.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	return &p, nil
}
