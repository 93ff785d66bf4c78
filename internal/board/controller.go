package board

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dori/staffsphere/internal/model"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// DefaultBulkConcurrency bounds in-flight requests of one bulk batch
const DefaultBulkConcurrency = 8

// provisionalPrefix marks IDs of cards the server has not confirmed yet
const provisionalPrefix = "local-"

const reasonCreating = "card is still being created"

// Mutation is the server half of an optimistic change. It sends the
// request(s), and on failure resyncs the store before returning the error.
// A nil Mutation has nothing to send.
type Mutation func(ctx context.Context) error

// Reorderer is what a drag-and-drop gesture needs from a board
type Reorderer interface {
	OnReorder(itemID string, fromGroup, toGroup model.Status) (Mutation, error)
}

// Controller applies user changes to a Store optimistically and reconciles
// them with the server.
type Controller struct {
	store  *Store
	api    API
	layout model.Layout
	bulk   int64
	newID  func() string
}

// Option configures a Controller
type Option func(*Controller)

// WithBulkConcurrency bounds the concurrent requests of a bulk batch
func WithBulkConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.bulk = int64(n)
		}
	}
}

// NewController creates a controller for a store of the given layout.
// The store must be backed by the same api.
func NewController(store *Store, api API, layout model.Layout, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		api:    api,
		layout: layout,
		bulk:   DefaultBulkConcurrency,
		newID:  func() string { return provisionalPrefix + uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the controlled store
func (c *Controller) Store() *Store { return c.store }

// Layout returns the board layout
func (c *Controller) Layout() model.Layout { return c.layout }

// IsProvisional reports whether id belongs to an unconfirmed create
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}

// Resync reloads the current parent from the server
func (c *Controller) Resync(ctx context.Context) error {
	return c.store.Load(ctx, c.store.ParentID())
}

// MoveTask sets the status of one card. Dropping a card into the column it
// already occupies is a no-op and returns a nil Mutation.
func (c *Controller) MoveTask(id string, to model.Status) (Mutation, error) {
	if !c.layout.Has(to) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown column %q", to)}
	}
	card, ok := c.store.Find(id)
	if !ok {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("no card %q on this board", id)}
	}
	if card.Status == to {
		return nil, nil
	}
	if IsProvisional(id) {
		return nil, &ValidationError{Field: "id", Reason: reasonCreating}
	}

	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		for i := range cards {
			if cards[i].ID == id {
				cards[i].Status = to
			}
		}
		return cards
	})

	return func(ctx context.Context) error {
		if _, err := c.api.Update(ctx, id, model.StatusPatch(to)); err != nil {
			return c.fail(ctx, "move", 1, 1, err)
		}
		return nil
	}, nil
}

// OnReorder implements Reorderer. fromGroup is what the gesture saw; the
// store's current status decides whether anything moves.
func (c *Controller) OnReorder(itemID string, fromGroup, toGroup model.Status) (Mutation, error) {
	if fromGroup == toGroup {
		return nil, nil
	}
	return c.MoveTask(itemID, toGroup)
}

// Create adds a card with a provisional ID and swaps in the server's card
// once it is confirmed.
func (c *Controller) Create(draft model.Card) (Mutation, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "title is required"}
	}
	if draft.Status == "" {
		draft.Status = c.layout.Columns[0]
	}
	if !c.layout.Has(draft.Status) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown column %q", draft.Status)}
	}
	if draft.Priority == "" {
		draft.Priority = model.PriorityMedium
	}
	if !draft.Priority.Valid() {
		return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", draft.Priority)}
	}

	parentID := c.store.ParentID()
	tempID := c.newID()
	draft.ID = tempID
	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		return append(cards, draft)
	})

	return func(ctx context.Context) error {
		send := draft
		send.ID = ""
		created, err := c.api.Create(ctx, parentID, send)
		if err != nil {
			return c.fail(ctx, "create", 1, 1, err)
		}
		c.store.ApplyLocal(func(cards []model.Card) []model.Card {
			for i := range cards {
				if cards[i].ID == tempID {
					cards[i] = created
				}
			}
			return cards
		})
		return nil
	}, nil
}

// Edit replaces the editable fields of a card; its status is kept
func (c *Controller) Edit(id string, edit model.Card) (Mutation, error) {
	edit.Title = strings.TrimSpace(edit.Title)
	if edit.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "title is required"}
	}
	if !edit.Priority.Valid() {
		return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", edit.Priority)}
	}
	card, ok := c.store.Find(id)
	if !ok {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("no card %q on this board", id)}
	}
	if IsProvisional(id) {
		return nil, &ValidationError{Field: "id", Reason: reasonCreating}
	}

	edit.ID = card.ID
	edit.Status = card.Status
	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		for i := range cards {
			if cards[i].ID == id {
				cards[i] = edit
			}
		}
		return cards
	})

	return func(ctx context.Context) error {
		if _, err := c.api.Update(ctx, id, model.EditPatch(edit)); err != nil {
			return c.fail(ctx, "edit", 1, 1, err)
		}
		return nil
	}, nil
}

// Delete removes one card; it also leaves the selection
func (c *Controller) Delete(id string) (Mutation, error) {
	if _, ok := c.store.Find(id); !ok {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("no card %q on this board", id)}
	}
	if IsProvisional(id) {
		return nil, &ValidationError{Field: "id", Reason: reasonCreating}
	}

	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		return removeCards(cards, map[string]bool{id: true})
	})

	return func(ctx context.Context) error {
		if err := c.api.Delete(ctx, id); err != nil {
			return c.fail(ctx, "delete", 1, 1, err)
		}
		return nil
	}, nil
}

// BulkMove moves every selected card to a column
func (c *Controller) BulkMove(to model.Status) (Mutation, error) {
	if !c.layout.Has(to) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown column %q", to)}
	}
	selected := c.store.Selected()
	if len(selected) == 0 {
		return nil, &ValidationError{Field: "selection", Reason: "no cards selected"}
	}

	var ids []string
	for _, id := range selected {
		if card, ok := c.store.Find(id); ok && card.Status != to && !IsProvisional(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		c.store.ClearSelection()
		return nil, nil
	}

	affected := make(map[string]bool, len(ids))
	for _, id := range ids {
		affected[id] = true
	}
	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		for i := range cards {
			if affected[cards[i].ID] {
				cards[i].Status = to
			}
		}
		return cards
	})

	return func(ctx context.Context) error {
		return c.batch(ctx, "bulk move", ids, func(ctx context.Context, id string) error {
			_, err := c.api.Update(ctx, id, model.StatusPatch(to))
			return err
		})
	}, nil
}

// BulkDelete deletes every selected card
func (c *Controller) BulkDelete() (Mutation, error) {
	selected := c.store.Selected()
	if len(selected) == 0 {
		return nil, &ValidationError{Field: "selection", Reason: "no cards selected"}
	}
	var ids []string
	for _, id := range selected {
		if !IsProvisional(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "selection", Reason: reasonCreating}
	}

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}
	c.store.ApplyLocal(func(cards []model.Card) []model.Card {
		return removeCards(cards, doomed)
	})

	return func(ctx context.Context) error {
		return c.batch(ctx, "bulk delete", ids, c.api.Delete)
	}, nil
}

// batch sends one request per id concurrently and always ends with a clear
// selection and a resync, whatever the outcome.
func (c *Controller) batch(ctx context.Context, op string, ids []string, call func(context.Context, string) error) error {
	sem := semaphore.NewWeighted(c.bulk)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   error
		failed int
	)
	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			failed++
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			if err := call(ctx, id); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
				failed++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if failed == 0 {
		c.store.ClearSelection()
		return c.Resync(ctx)
	}
	resyncErr := c.Resync(ctx)
	c.store.ClearSelection()
	return &MutationError{Op: op, Failed: failed, Total: len(ids), Err: errs, Resync: resyncErr}
}

// fail discards optimistic state by reloading the current parent
func (c *Controller) fail(ctx context.Context, op string, failed, total int, err error) error {
	return &MutationError{Op: op, Failed: failed, Total: total, Err: err, Resync: c.Resync(ctx)}
}

func removeCards(cards []model.Card, ids map[string]bool) []model.Card {
	out := cards[:0]
	for _, card := range cards {
		if !ids[card.ID] {
			out = append(out, card)
		}
	}
	return out
}
