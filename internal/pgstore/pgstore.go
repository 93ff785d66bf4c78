// Package pgstore is the PostgreSQL backend of the board server.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dori/staffsphere/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps employees, projects and tasks in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// New creates a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// EnsureTables creates the schema if it doesn't exist.
func (s *Store) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			department  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'Pending',
			priority     TEXT NOT NULL DEFAULT 'MEDIUM',
			due_date     TEXT,
			assigned_to  TEXT NOT NULL DEFAULT '',
			department   TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ DEFAULT NOW(),
			updated_at   TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'TO_DO',
			priority     TEXT NOT NULL DEFAULT 'MEDIUM',
			due_date     TEXT,
			assigned_to  TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ DEFAULT NOW(),
			updated_at   TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, project_id, title, description, status, priority, due_date, assigned_to, created_at, updated_at`

const projectColumns = `id, title, description, status, priority, due_date, assigned_to, department, created_at, updated_at`

// ListTasks returns the tasks of a project in creation order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if err := s.projectExists(ctx, s.pool, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CreateTask validates and inserts a task.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if err := t.Normalize(model.TaskLayout); err != nil {
		return model.Task{}, err
	}
	if err := s.projectExists(ctx, s.pool, t.ProjectID); err != nil {
		return model.Task{}, err
	}
	t.ID = uuid.New().String()
	now := time.Now().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
		dateValue(t.DueDate), t.AssignedTo, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// UpdateTask applies patch to a task under a row lock.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	var updated model.Task
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := patch.Apply(&t.Card, model.TaskLayout); err != nil {
			return err
		}
		t.UpdatedAt = time.Now().Truncate(time.Microsecond)
		_, err = tx.Exec(ctx, `
			UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
			       due_date = $5, assigned_to = $6, updated_at = $7
			WHERE id = $8`,
			t.Title, t.Description, string(t.Status), string(t.Priority),
			dateValue(t.DueDate), t.AssignedTo, t.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update task %s: %w", id, err)
		}
		updated = *t
		return nil
	})
	return updated, err
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListProjects returns all projects with task counts.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.title, p.description, p.status, p.priority, p.due_date,
		       p.assigned_to, p.department, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id),
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id AND status = 'DONE')
		FROM projects p
		ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows, true)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// CreateProject validates and inserts a project.
func (s *Store) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if err := p.Normalize(model.ProjectLayout); err != nil {
		return model.Project{}, err
	}
	p.ID = uuid.New().String()
	now := time.Now().Truncate(time.Microsecond)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TaskCount, p.CompletedCount = 0, 0

	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Title, p.Description, string(p.Status), string(p.Priority),
		dateValue(p.DueDate), p.AssignedTo, p.Department, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// UpdateProject applies patch to a project under a row lock.
func (s *Store) UpdateProject(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	var updated model.Project
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		p, err := scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id), false)
		if err != nil {
			return err
		}
		if err := patch.Apply(&p.Card, model.ProjectLayout); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().Truncate(time.Microsecond)
		_, err = tx.Exec(ctx, `
			UPDATE projects SET title = $1, description = $2, status = $3, priority = $4,
			       due_date = $5, assigned_to = $6, updated_at = $7
			WHERE id = $8`,
			p.Title, p.Description, string(p.Status), string(p.Priority),
			dateValue(p.DueDate), p.AssignedTo, p.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update project %s: %w", id, err)
		}
		updated = *p
		return nil
	})
	return updated, err
}

// DeleteProject removes a project and its tasks.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, department FROM employees ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Department); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// CreateEmployee inserts an employee, assigning an ID when e has none.
func (s *Store) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return model.Employee{}, fmt.Errorf("%w: name is required", model.ErrInvalid)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO employees (id, name, department) VALUES ($1, $2, $3)`,
		e.ID, e.Name, e.Department)
	if err != nil {
		return model.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) projectExists(ctx context.Context, q rowQuerier, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("project %q: %w", id, model.ErrNotFound)
	}
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var status, priority string
	var due *string
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority,
		&due, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Status = model.Status(status)
	t.Priority = model.Priority(priority)
	if t.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanProject(row pgx.Row, withCounts bool) (*model.Project, error) {
	var p model.Project
	var status, priority string
	var due *string
	dest := []any{&p.ID, &p.Title, &p.Description, &status, &priority,
		&due, &p.AssignedTo, &p.Department, &p.CreatedAt, &p.UpdatedAt}
	if withCounts {
		dest = append(dest, &p.TaskCount, &p.CompletedCount)
	}
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = model.Status(status)
	p.Priority = model.Priority(priority)
	if p.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	return &p, nil
}

func dateValue(d *model.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDate(s *string) (*model.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
