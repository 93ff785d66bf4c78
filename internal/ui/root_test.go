package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/staffsphere/internal/board"
	"github.com/dori/staffsphere/internal/model"
	"github.com/dori/staffsphere/internal/ui/theme"
	"github.com/dori/staffsphere/internal/ui/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listAPI struct {
	cards []model.Card
	lists int
}

func (a *listAPI) List(context.Context, string) ([]model.Card, error) {
	a.lists++
	return a.cards, nil
}

func (a *listAPI) Create(context.Context, string, model.Card) (model.Card, error) {
	return model.Card{}, errors.New("read only")
}

func (a *listAPI) Update(context.Context, string, model.Patch) (model.Card, error) {
	return model.Card{}, errors.New("read only")
}

func (a *listAPI) Delete(context.Context, string) error { return errors.New("read only") }

type backend struct {
	tasks, projects *listAPI
}

func (b *backend) Board(kind model.Kind) board.API {
	if kind == model.KindProject {
		return b.projects
	}
	return b.tasks
}

func (b *backend) Employees(context.Context) ([]model.Employee, error) { return nil, nil }

// step applies msg and runs every resulting command to completion,
// batches included, feeding their messages back in.
func step(t *testing.T, m RootModel, msg tea.Msg) RootModel {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next, cmd := m.Update(queue[0])
		m = next.(RootModel)
		queue = queue[1:]
		queue = append(queue, run(cmd)...)
	}
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func newRoot(t *testing.T, events chan model.Event, errs chan error) (RootModel, *backend) {
	t.Helper()
	b := &backend{
		tasks:    &listAPI{cards: []model.Card{{ID: "t1", Title: "Task", Status: model.StatusToDo, Priority: model.PriorityLow}}},
		projects: &listAPI{cards: []model.Card{{ID: "p1", Title: "Hiring", Status: model.StatusPending, Priority: model.PriorityLow}}},
	}
	opts := Options{Backend: b}
	if events != nil {
		opts.Subscribe = func(context.Context) (<-chan model.Event, <-chan error) { return events, errs }
	}
	m := NewRootModel(context.Background(), opts)
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	for _, msg := range run(m.projects.Init()) {
		m = step(t, m, msg)
	}
	return m, b
}

func TestOpenProjectSwitchesToTasks(t *testing.T) {
	m, b := newRoot(t, nil, nil)
	assert.Equal(t, ViewProjects, m.currentView)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewTasks, m.currentView)
	assert.Equal(t, "p1", m.tasks.ParentID())
	assert.Equal(t, 1, b.tasks.lists)
	assert.Len(t, m.tasks.Store().Cards(), 1)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Equal(t, ViewProjects, m.currentView)
}

func TestFeedEventsResyncAffectedBoard(t *testing.T) {
	events := make(chan model.Event, 4)
	errs := make(chan error, 1)
	m, b := newRoot(t, events, errs)
	m = step(t, m, views.OpenProjectRequest{ProjectID: "p1", Title: "Hiring"})
	before := b.tasks.lists

	// another project's task: no reload
	events <- model.Event{Type: "created", Kind: model.KindTask, ParentID: "p2", ID: "x"}
	events <- model.Event{Type: "updated", Kind: model.KindTask, ParentID: "p1", ID: "t1"}
	close(events)
	errs <- errors.New("connection reset")

	m = step(t, m, run(waitForFeed(m.events, m.feedErrs))[0])
	assert.Equal(t, before+1, b.tasks.lists)
	assert.Contains(t, m.errorMsg, "connection reset")
}

func TestDeletedProjectClosesTaskBoard(t *testing.T) {
	m, _ := newRoot(t, nil, nil)
	m = step(t, m, views.OpenProjectRequest{ProjectID: "p1", Title: "Hiring"})

	next, _ := m.handleFeedEvent(model.Event{Type: "deleted", Kind: model.KindProject, ID: "p1"})
	m = next.(RootModel)
	assert.Empty(t, m.tasks.ParentID())
	assert.NotEmpty(t, m.statusMsg)
}

func TestThemeCycleAndErrorLine(t *testing.T) {
	defer theme.SetTheme(theme.Nord)
	m, _ := newRoot(t, nil, nil)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, "gruvbox", theme.Current.Theme.Name)

	m = step(t, m, views.ErrorMsg{Err: errors.New("boom")})
	require.Equal(t, "boom", m.errorMsg)
	assert.Contains(t, m.View(), "boom")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Empty(t, m.errorMsg)
}

func TestFeedEventKeepsSelection(t *testing.T) {
	events := make(chan model.Event)
	errs := make(chan error)
	m, b := newRoot(t, events, errs)
	m = step(t, m, views.OpenProjectRequest{ProjectID: "p1", Title: "Hiring"})
	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Equal(t, []string{"t1"}, m.tasks.Store().Selected())
	before := b.tasks.lists

	// the feed ends after this event so the follow-up wait returns at once
	close(events)
	close(errs)
	m = step(t, m, feedEventMsg{Event: model.Event{Type: "updated", Kind: model.KindTask, ParentID: "p1", ID: "other"}})

	assert.Equal(t, before+1, b.tasks.lists)
	assert.Equal(t, []string{"t1"}, m.tasks.Store().Selected())
	assert.Empty(t, m.errorMsg)
}
