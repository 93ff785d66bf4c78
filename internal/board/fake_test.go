package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dori/staffsphere/internal/model"
)

var errServer = errors.New("server exploded")

// fakeAPI is an in-memory server. failIDs makes Update/Delete fail for
// specific cards; block, when set, holds every write until it is closed.
type fakeAPI struct {
	mu       sync.Mutex
	cards    map[string][]model.Card
	nextID   int
	failIDs  map[string]bool
	failAll  bool
	failList bool
	block    chan struct{}
	calls    []string
}

func newFakeAPI(parentID string, cards ...model.Card) *fakeAPI {
	return &fakeAPI{
		cards:   map[string][]model.Card{parentID: slices.Clone(cards)},
		failIDs: map[string]bool{},
	}
}

func (f *fakeAPI) wait(ctx context.Context) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) List(ctx context.Context, parentID string) ([]model.Card, error) {
	f.record("list " + parentID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errServer
	}
	return slices.Clone(f.cards[parentID]), nil
}

func (f *fakeAPI) Create(ctx context.Context, parentID string, c model.Card) (model.Card, error) {
	f.record("create " + c.Title)
	if err := f.wait(ctx); err != nil {
		return model.Card{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return model.Card{}, errServer
	}
	f.nextID++
	c.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.cards[parentID] = append(f.cards[parentID], c)
	return c, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, patch model.Patch) (model.Card, error) {
	f.record("update " + id)
	if err := f.wait(ctx); err != nil {
		return model.Card{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failIDs[id] {
		return model.Card{}, errServer
	}
	for parent, cards := range f.cards {
		for i := range cards {
			if cards[i].ID != id {
				continue
			}
			layout := model.TaskLayout
			if model.ProjectLayout.Has(cards[i].Status) {
				layout = model.ProjectLayout
			}
			if err := patch.Apply(&cards[i], layout); err != nil {
				return model.Card{}, err
			}
			f.cards[parent] = cards
			return cards[i], nil
		}
	}
	return model.Card{}, model.ErrNotFound
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.record("delete " + id)
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failIDs[id] {
		return errServer
	}
	for parent, cards := range f.cards {
		for i := range cards {
			if cards[i].ID == id {
				f.cards[parent] = slices.Delete(cards, i, i+1)
				return nil
			}
		}
	}
	return model.ErrNotFound
}

func (f *fakeAPI) serverCards(parentID string) []model.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cards[parentID])
}

func card(id, title string, status model.Status) model.Card {
	return model.Card{ID: id, Title: title, Status: status, Priority: model.PriorityMedium}
}

func statuses(cards []model.Card) map[string]model.Status {
	out := make(map[string]model.Status, len(cards))
	for _, c := range cards {
		out[c.ID] = c.Status
	}
	return out
}
