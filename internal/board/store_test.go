package board

import (
	"context"
	"errors"
	"testing"

	"github.com/dori/staffsphere/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadReplacesContents(t *testing.T) {
	api := newFakeAPI("p1", card("t1", "One", model.StatusToDo), card("t2", "Two", model.StatusDone))
	s := NewStore(api)

	require.NoError(t, s.Load(context.Background(), "p1"))
	assert.Equal(t, "p1", s.ParentID())
	assert.Len(t, s.Cards(), 2)

	s.Toggle("t1")
	require.NoError(t, s.Load(context.Background(), "p1"))
	assert.Empty(t, s.Selected(), "load starts with an empty selection")
}

func TestStoreLoadFailureKeepsState(t *testing.T) {
	api := newFakeAPI("p1", card("t1", "One", model.StatusToDo))
	s := NewStore(api)
	require.NoError(t, s.Load(context.Background(), "p1"))
	s.Toggle("t1")

	api.failList = true
	err := s.Load(context.Background(), "p2")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "p2", fetchErr.ParentID)
	assert.ErrorIs(t, err, errServer)
	assert.Equal(t, "p1", s.ParentID())
	assert.Len(t, s.Cards(), 1)
	assert.True(t, s.IsSelected("t1"))
}

func TestStoreApplyLocalPrunesSelection(t *testing.T) {
	s := NewStore(newFakeAPI(""))
	s.ReplaceAll([]model.Card{
		card("a", "A", model.StatusToDo),
		card("b", "B", model.StatusToDo),
		card("c", "C", model.StatusToDo),
	})
	s.Toggle("a")
	s.Toggle("b")

	s.ApplyLocal(func(cards []model.Card) []model.Card {
		return removeCards(cards, map[string]bool{"a": true})
	})

	assert.Equal(t, []string{"b"}, s.Selected())
}

func TestStoreCardsReturnsCopy(t *testing.T) {
	s := NewStore(newFakeAPI(""))
	s.ReplaceAll([]model.Card{card("a", "A", model.StatusToDo)})

	cards := s.Cards()
	cards[0].Title = "changed"

	got, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", got.Title)
}

func TestStoreSelectionIgnoresUnknownIDs(t *testing.T) {
	s := NewStore(newFakeAPI(""))
	s.ReplaceAll([]model.Card{card("a", "A", model.StatusToDo), card("b", "B", model.StatusToDo)})

	assert.False(t, s.Toggle("ghost"))
	s.SelectAllVisible([]string{"a", "ghost"})
	assert.Equal(t, []string{"a"}, s.Selected())

	s.ClearSelection()
	assert.Empty(t, s.Selected())
}

func TestStoreRefreshKeepsSelection(t *testing.T) {
	api := newFakeAPI("p1",
		card("t1", "One", model.StatusToDo),
		card("t2", "Two", model.StatusToDo),
		card("t3", "Three", model.StatusToDo))
	s := NewStore(api)
	require.NoError(t, s.Load(context.Background(), "p1"))
	s.Toggle("t1")
	s.Toggle("t2")

	api.mu.Lock()
	api.cards["p1"] = []model.Card{card("t1", "One", model.StatusDone), card("t3", "Three", model.StatusToDo)}
	api.mu.Unlock()

	require.NoError(t, s.Refresh(context.Background(), "p1"))
	assert.Equal(t, []string{"t1"}, s.Selected(), "vanished ids are pruned, the rest stay")
	got, ok := s.Find("t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusDone, got.Status)
}

func TestStoreRefreshIgnoresOtherParent(t *testing.T) {
	api := newFakeAPI("p1", card("t1", "One", model.StatusToDo))
	api.cards["p2"] = []model.Card{card("x", "Other", model.StatusToDo)}
	s := NewStore(api)
	require.NoError(t, s.Load(context.Background(), "p1"))

	require.NoError(t, s.Refresh(context.Background(), "p2"))
	assert.Equal(t, "p1", s.ParentID())
	_, ok := s.Find("t1")
	assert.True(t, ok)

	api.failList = true
	var fetchErr *FetchError
	require.ErrorAs(t, s.Refresh(context.Background(), "p1"), &fetchErr)
	assert.Len(t, s.Cards(), 1)
}
