// Package board holds the client-side state of a kanban board: the card list,
// the bulk selection, the filter/sort projection and the optimistic mutation
// controller that keeps the list in step with the server.
package board

import (
	"context"
	"slices"
	"sync"

	"github.com/dori/staffsphere/internal/model"
)

// API is the server side of a board
type API interface {
	List(ctx context.Context, parentID string) ([]model.Card, error)
	Create(ctx context.Context, parentID string, c model.Card) (model.Card, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Card, error)
	Delete(ctx context.Context, id string) error
}

// Store holds the cards of the active parent and the bulk selection.
// Local mutations run to completion under the lock; network calls never
// happen while it is held.
type Store struct {
	api API

	mu       sync.RWMutex
	parentID string
	cards    []model.Card
	sel      *Selection
}

// NewStore creates an empty store backed by api
func NewStore(api API) *Store {
	return &Store{api: api, sel: NewSelection()}
}

// Load fetches the full card list for parentID and replaces the store
// contents. On failure the previous contents, parent and selection are kept.
func (s *Store) Load(ctx context.Context, parentID string) error {
	cards, err := s.api.List(ctx, parentID)
	if err != nil {
		return &FetchError{ParentID: parentID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.parentID = parentID
	s.replaceLocked(cards)
	s.sel.Clear()
	return nil
}

// Refresh fetches parentID's cards and swaps them in without clearing the
// selection; ids that disappeared are still pruned. Nothing changes when the
// fetch fails or the store was loaded with another parent meanwhile.
func (s *Store) Refresh(ctx context.Context, parentID string) error {
	cards, err := s.api.List(ctx, parentID)
	if err != nil {
		return &FetchError{ParentID: parentID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentID != parentID {
		return nil
	}
	s.replaceLocked(cards)
	return nil
}

// ReplaceAll swaps in a new card list
func (s *Store) ReplaceAll(cards []model.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(cards)
}

// ApplyLocal transforms the card list synchronously. fn receives a copy it
// may modify freely. Selected IDs that no longer exist are dropped.
func (s *Store) ApplyLocal(fn func(cards []model.Card) []model.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(fn(slices.Clone(s.cards)))
}

func (s *Store) replaceLocked(cards []model.Card) {
	s.cards = slices.Clone(cards)
	present := make(map[string]bool, len(s.cards))
	for _, c := range s.cards {
		present[c.ID] = true
	}
	s.sel.Retain(func(id string) bool { return present[id] })
}

// Cards returns a copy of the current card list
func (s *Store) Cards() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cards)
}

// Find returns the card with the given ID
func (s *Store) Find(id string) (model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cards {
		if c.ID == id {
			return c, true
		}
	}
	return model.Card{}, false
}

// ParentID returns the parent of the last successful load
func (s *Store) ParentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parentID
}

// Toggle flips the selection of an existing card.
// It reports whether the card is selected afterwards.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasLocked(id) {
		return false
	}
	return s.sel.Toggle(id)
}

// SelectAllVisible replaces the selection with the given visible IDs
func (s *Store) SelectAllVisible(visibleIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, id := range visibleIDs {
		if s.hasLocked(id) {
			ids = append(ids, id)
		}
	}
	s.sel.SelectAllVisible(ids)
}

// ClearSelection empties the selection
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// IsSelected reports whether id is selected
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel.Contains(id)
}

// Selected returns the selected IDs in sorted order
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel.IDs()
}

func (s *Store) hasLocked(id string) bool {
	for _, c := range s.cards {
		if c.ID == id {
			return true
		}
	}
	return false
}
