package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dori/staffsphere/internal/model"
	"github.com/google/uuid"
)

// ListEmployees returns all employees ordered by name
func (db *DB) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, department
		FROM employees
		ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
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

// CreateEmployee stores an employee, assigning an ID when e has none
func (db *DB) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return model.Employee{}, fmt.Errorf("%w: name is required", model.ErrInvalid)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, name, department, created_at)
		VALUES (?, ?, ?, ?)
	`, e.ID, e.Name, e.Department, time.Now().UTC())
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	return e, nil
}
