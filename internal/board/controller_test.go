package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dori/staffsphere/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T, cards ...model.Card) (*fakeAPI, *Controller) {
	t.Helper()
	api := newFakeAPI("p1", cards...)
	store := NewStore(api)
	require.NoError(t, store.Load(context.Background(), "p1"))
	api.calls = nil
	return api, NewController(store, api, model.TaskLayout)
}

func columnIDs(c *Controller) map[model.Status][]string {
	out := map[model.Status][]string{}
	for _, col := range Group(c.Store().Cards(), c.Layout()) {
		out[col.Status] = col.IDs()
	}
	return out
}

func TestMoveTaskSameColumnIsNoop(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))
	before := c.Store().Cards()

	m, err := c.MoveTask("1", model.StatusToDo)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = c.OnReorder("1", model.StatusToDo, model.StatusToDo)
	require.NoError(t, err)
	assert.Nil(t, m)

	assert.Empty(t, api.calls)
	assert.Equal(t, before, c.Store().Cards())
}

func TestMoveTaskValidation(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))

	_, err := c.MoveTask("1", "ARCHIVED")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)

	_, err = c.MoveTask("missing", model.StatusDone)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "id", verr.Field)

	assert.Empty(t, api.calls)
}

func TestMoveTaskIsVisibleBeforeServerResponds(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))
	api.block = make(chan struct{})

	m, err := c.MoveTask("1", model.StatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, m)

	got, _ := c.Store().Find("1")
	assert.Equal(t, model.StatusInProgress, got.Status)

	done := make(chan error, 1)
	go func() { done <- m(context.Background()) }()

	got, _ = c.Store().Find("1")
	assert.Equal(t, model.StatusInProgress, got.Status, "still optimistic while the request is pending")

	close(api.block)
	require.NoError(t, <-done)

	got, _ = c.Store().Find("1")
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, model.StatusInProgress, statuses(api.serverCards("p1"))["1"])
}

func TestMoveTaskFailureResyncs(t *testing.T) {
	api, c := newBoard(t,
		card("1", "One", model.StatusToDo),
		card("2", "Two", model.StatusDone),
	)

	m, err := c.OnReorder("1", model.StatusToDo, model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, map[model.Status][]string{
		model.StatusToDo:       {},
		model.StatusInProgress: {},
		model.StatusDone:       {"1", "2"},
	}, columnIDs(c))

	api.failIDs["1"] = true
	err = m(context.Background())

	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 1, merr.Failed)
	assert.NoError(t, merr.Resync)
	assert.ErrorIs(t, err, errServer)
	assert.Contains(t, api.calls, "list p1")

	assert.Equal(t, map[model.Status][]string{
		model.StatusToDo:       {"1"},
		model.StatusInProgress: {},
		model.StatusDone:       {"2"},
	}, columnIDs(c))
}

func TestCreateSwapsProvisionalCard(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))

	m, err := c.Create(model.Card{Title: "  New hire  "})
	require.NoError(t, err)

	cards := c.Store().Cards()
	require.Len(t, cards, 2)
	assert.True(t, IsProvisional(cards[1].ID))
	assert.Equal(t, "New hire", cards[1].Title)
	assert.Equal(t, model.StatusToDo, cards[1].Status)
	assert.Equal(t, model.PriorityMedium, cards[1].Priority)

	require.NoError(t, m(context.Background()))

	cards = c.Store().Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, "srv-1", cards[1].ID)
	assert.Len(t, api.serverCards("p1"), 2)
}

func TestCreateFailureResyncs(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))
	api.failAll = true

	m, err := c.Create(model.Card{Title: "Doomed"})
	require.NoError(t, err)
	assert.Len(t, c.Store().Cards(), 2)

	require.Error(t, m(context.Background()))
	assert.Len(t, c.Store().Cards(), 1)
}

func TestCreateRequiresTitle(t *testing.T) {
	api, c := newBoard(t)

	_, err := c.Create(model.Card{Title: "   "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
	assert.Empty(t, c.Store().Cards())
	assert.Empty(t, api.calls)
}

func TestEditKeepsStatus(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusInProgress))

	edit := model.Card{Title: "Renamed", Priority: model.PriorityHigh, DueDate: model.MustDate("2024-05-01"), Status: model.StatusDone}
	m, err := c.Edit("1", edit)
	require.NoError(t, err)

	got, _ := c.Store().Find("1")
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, model.StatusInProgress, got.Status)

	require.NoError(t, m(context.Background()))
	server := api.serverCards("p1")[0]
	assert.Equal(t, "Renamed", server.Title)
	assert.Equal(t, model.PriorityHigh, server.Priority)
	assert.Equal(t, "2024-05-01", server.DueDate.String())
	assert.Equal(t, model.StatusInProgress, server.Status)
}

func TestDeletePrunesSelection(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo), card("2", "Two", model.StatusToDo))
	c.Store().Toggle("1")
	c.Store().Toggle("2")

	m, err := c.Delete("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, c.Store().Selected())

	require.NoError(t, m(context.Background()))
	assert.Len(t, api.serverCards("p1"), 1)
}

func TestBulkMoveRequiresSelection(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusToDo))

	_, err := c.BulkMove(model.StatusDone)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "selection", verr.Field)

	_, err = c.BulkDelete()
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, api.calls)
}

func TestBulkMoveSkipsCardsAlreadyThere(t *testing.T) {
	api, c := newBoard(t,
		card("1", "One", model.StatusToDo),
		card("2", "Two", model.StatusDone),
		card("3", "Three", model.StatusInProgress),
	)
	c.Store().SelectAllVisible([]string{"1", "2", "3"})

	m, err := c.BulkMove(model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, columnIDs(c)[model.StatusDone])

	require.NoError(t, m(context.Background()))
	assert.Empty(t, c.Store().Selected())
	assert.NotContains(t, api.calls, "update 2")
	assert.Contains(t, api.calls, "update 1")
	assert.Contains(t, api.calls, "update 3")
	assert.Contains(t, api.calls, "list p1")
}

func TestBulkMoveAllInPlaceClearsSelection(t *testing.T) {
	api, c := newBoard(t, card("1", "One", model.StatusDone))
	c.Store().Toggle("1")

	m, err := c.BulkMove(model.StatusDone)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Empty(t, c.Store().Selected())
	assert.Empty(t, api.calls)
}

func TestBulkMovePartialFailure(t *testing.T) {
	api, c := newBoard(t,
		card("1", "One", model.StatusToDo),
		card("2", "Two", model.StatusToDo),
		card("3", "Three", model.StatusToDo),
	)
	c.Store().SelectAllVisible([]string{"1", "2", "3"})
	api.failIDs["2"] = true

	m, err := c.BulkMove(model.StatusDone)
	require.NoError(t, err)
	err = m(context.Background())

	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 1, merr.Failed)
	assert.Equal(t, 3, merr.Total)
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Empty(t, c.Store().Selected())

	// the store matches the server, including the two moves that landed
	assert.Equal(t, api.serverCards("p1"), c.Store().Cards())
	assert.Equal(t, map[string]model.Status{
		"1": model.StatusDone,
		"2": model.StatusToDo,
		"3": model.StatusDone,
	}, statuses(c.Store().Cards()))
}

func TestBulkDelete(t *testing.T) {
	api, c := newBoard(t,
		card("1", "One", model.StatusToDo),
		card("2", "Two", model.StatusToDo),
		card("3", "Three", model.StatusToDo),
	)
	c.Store().SelectAllVisible([]string{"1", "3"})

	m, err := c.BulkDelete()
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, columnIDs(c)[model.StatusToDo])

	require.NoError(t, m(context.Background()))
	assert.Empty(t, c.Store().Selected())
	assert.Len(t, api.serverCards("p1"), 1)
}

// countingAPI tracks how many writes are in flight at once
type countingAPI struct {
	*fakeAPI
	mu       sync.Mutex
	inFlight int
	peak     int
	release  chan struct{}
}

func (a *countingAPI) Update(ctx context.Context, id string, patch model.Patch) (model.Card, error) {
	a.mu.Lock()
	a.inFlight++
	if a.inFlight > a.peak {
		a.peak = a.inFlight
	}
	a.mu.Unlock()
	<-a.release
	a.mu.Lock()
	a.inFlight--
	a.mu.Unlock()
	return a.fakeAPI.Update(ctx, id, patch)
}

func TestBulkMoveBoundsConcurrency(t *testing.T) {
	var cards []model.Card
	var ids []string
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		cards = append(cards, card(id, id, model.StatusToDo))
		ids = append(ids, id)
	}
	api := &countingAPI{fakeAPI: newFakeAPI("p1", cards...), release: make(chan struct{})}
	store := NewStore(api)
	require.NoError(t, store.Load(context.Background(), "p1"))
	c := NewController(store, api, model.TaskLayout, WithBulkConcurrency(2))
	store.SelectAllVisible(ids)

	m, err := c.BulkMove(model.StatusDone)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m(context.Background()) }()
	for range ids {
		api.release <- struct{}{}
	}
	require.NoError(t, <-done)

	assert.LessOrEqual(t, api.peak, 2)
	for _, s := range statuses(store.Cards()) {
		assert.Equal(t, model.StatusDone, s)
	}
}

func TestBulkDeleteOfUnconfirmedCardsExplainsWhy(t *testing.T) {
	api, c := newBoard(t)

	_, err := c.Create(model.Card{Title: "Pending"})
	require.NoError(t, err)
	cards := c.Store().Cards()
	require.Len(t, cards, 1)
	require.True(t, c.Store().Toggle(cards[0].ID))

	_, err = c.BulkDelete()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "selection", verr.Field)
	assert.Equal(t, reasonCreating, verr.Reason)
	assert.Len(t, c.Store().Cards(), 1)
	assert.Empty(t, api.calls)
}
