package board

import "sort"

// Selection is the set of card IDs chosen for a bulk action.
// It is not safe for concurrent use; Store guards the one it owns.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle adds id if absent and removes it if present.
// It reports whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAllVisible replaces the selection with exactly visibleIDs
func (s *Selection) SelectAllVisible(visibleIDs []string) {
	s.ids = make(map[string]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Contains reports whether id is selected
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected IDs
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected IDs in sorted order
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove drops ids from the selection
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Retain drops every ID for which keep returns false
func (s *Selection) Retain(keep func(id string) bool) {
	for id := range s.ids {
		if !keep(id) {
			delete(s.ids, id)
		}
	}
}
