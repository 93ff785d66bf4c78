package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dori/staffsphere/internal/model"
	"github.com/dori/staffsphere/internal/server"
)

// SeedResult lists what Seed created
type SeedResult struct {
	Employees []model.Employee
	Projects  []model.Project
	Tasks     []model.Task
}

// Seed fills an empty store with demo employees, projects and tasks.
// Due dates are relative to today so some tasks are always overdue.
func Seed(ctx context.Context, store server.Store, today time.Time) (*SeedResult, error) {
	existing, err := store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("store already has %d projects", len(existing))
	}

	res := &SeedResult{}
	for _, e := range []model.Employee{
		{Name: "Ana Silva", Department: "People"},
		{Name: "Ben Okafor", Department: "IT"},
		{Name: "Chen Wu", Department: "Finance"},
	} {
		created, err := store.CreateEmployee(ctx, e)
		if err != nil {
			return nil, err
		}
		res.Employees = append(res.Employees, created)
	}
	ana, ben, chen := res.Employees[0].ID, res.Employees[1].ID, res.Employees[2].ID

	due := func(days int) *model.Date {
		d := model.DateOf(today.AddDate(0, 0, days))
		return &d
	}

	projects := []struct {
		project model.Project
		tasks   []model.Card
	}{
		{
			project: model.Project{
				Card:       model.Card{Title: "Q3 onboarding", Status: model.StatusOngoing, Priority: model.PriorityHigh, AssignedTo: ana, DueDate: due(14)},
				Department: "People",
			},
			tasks: []model.Card{
				{Title: "Order laptops", Priority: model.PriorityHigh, AssignedTo: ben, DueDate: due(-2)},
				{Title: "Create accounts", Status: model.StatusInProgress, AssignedTo: ben, DueDate: due(1)},
				{Title: "Schedule orientation", Priority: model.PriorityLow, AssignedTo: ana},
				{Title: "Send welcome pack", Status: model.StatusDone, AssignedTo: ana, DueDate: due(-5)},
			},
		},
		{
			project: model.Project{
				Card:       model.Card{Title: "Payroll migration", Priority: model.PriorityMedium, AssignedTo: chen, DueDate: due(30)},
				Department: "Finance",
			},
			tasks: []model.Card{
				{Title: "Export current ledger", AssignedTo: chen, DueDate: due(3)},
				{Title: "Review vendor contract", Priority: model.PriorityHigh, DueDate: due(-1)},
			},
		},
	}

	for _, p := range projects {
		project, err := store.CreateProject(ctx, p.project)
		if err != nil {
			return nil, err
		}
		res.Projects = append(res.Projects, project)
		for _, c := range p.tasks {
			task, err := store.CreateTask(ctx, model.Task{Card: c, ProjectID: project.ID})
			if err != nil {
				return nil, err
			}
			res.Tasks = append(res.Tasks, task)
		}
	}
	return res, nil
}
