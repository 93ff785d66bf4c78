package board

import (
	"slices"
	"strings"
	"time"

	"github.com/dori/staffsphere/internal/model"
)

// Filter values that disable a filter stage
const (
	PriorityAll model.Priority = "ALL"
	AssigneeAll                = "ALL"
)

// SortField selects the comparator applied by Project
type SortField int

const (
	// SortNone keeps server order
	SortNone SortField = iota
	SortTitle
	SortDueDate
	SortPriority
)

func (f SortField) String() string {
	switch f {
	case SortTitle:
		return "title"
	case SortDueDate:
		return "due"
	case SortPriority:
		return "priority"
	default:
		return "none"
	}
}

// ParseSortField is the inverse of SortField.String
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(s) {
	case "none", "":
		return SortNone, true
	case "title":
		return SortTitle, true
	case "due", "duedate", "due-date":
		return SortDueDate, true
	case "priority":
		return SortPriority, true
	}
	return SortNone, false
}

// Next cycles title -> due -> priority -> title
func (f SortField) Next() SortField {
	switch f {
	case SortTitle:
		return SortDueDate
	case SortDueDate:
		return SortPriority
	default:
		return SortTitle
	}
}

// Sort is a sort field plus direction
type Sort struct {
	Field SortField
	Desc  bool
}

// Filter is the set of pure inputs to the projection.
// Empty Priority/Assignee behave like ALL.
type Filter struct {
	Search      string
	Priority    model.Priority
	Assignee    string
	OverdueOnly bool
	Sort        Sort
}

// DefaultFilter shows everything ordered by due date, soonest first
func DefaultFilter() Filter {
	return Filter{
		Priority: PriorityAll,
		Assignee: AssigneeAll,
		Sort:     Sort{Field: SortDueDate},
	}
}

// Active reports whether any stage other than sorting removes cards
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		(f.Priority != "" && f.Priority != PriorityAll) ||
		(f.Assignee != "" && f.Assignee != AssigneeAll) ||
		f.OverdueOnly
}

// Project filters and sorts cards. It never modifies its input.
func Project(cards []model.Card, f Filter, layout model.Layout, today time.Time) []model.Card {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	todayDate := model.DateOf(today)

	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		if f.Priority != "" && f.Priority != PriorityAll && c.Priority != f.Priority {
			continue
		}
		if f.Assignee != "" && f.Assignee != AssigneeAll && c.AssignedTo != f.Assignee {
			continue
		}
		if f.OverdueOnly {
			if c.DueDate == nil || !c.DueDate.Before(todayDate) || c.Status == layout.Done {
				continue
			}
		}
		out = append(out, c)
	}

	if cmp := comparator(f.Sort); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func comparator(s Sort) func(a, b model.Card) int {
	dir := 1
	if s.Desc {
		dir = -1
	}
	switch s.Field {
	case SortTitle:
		return func(a, b model.Card) int {
			return dir * strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortPriority:
		return func(a, b model.Card) int {
			return dir * (a.Priority.Weight() - b.Priority.Weight())
		}
	case SortDueDate:
		// A missing due date counts as the latest possible date in both
		// directions: last when ascending, first when descending.
		return func(a, b model.Card) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return dir
			case b.DueDate == nil:
				return -dir
			case a.DueDate.Before(*b.DueDate):
				return -dir
			case b.DueDate.Before(*a.DueDate):
				return dir
			default:
				return 0
			}
		}
	default:
		return nil
	}
}

// Column is one group of the board
type Column struct {
	Status model.Status
	Cards  []model.Card
}

// IDs returns the card IDs of the column in order
func (c Column) IDs() []string {
	ids := make([]string, len(c.Cards))
	for i, card := range c.Cards {
		ids[i] = card.ID
	}
	return ids
}

// Group partitions cards by status in the layout's column order, keeping
// the incoming order within each column. Statuses the layout does not know
// get trailing columns in order of first appearance.
func Group(cards []model.Card, layout model.Layout) []Column {
	cols := make([]Column, len(layout.Columns))
	index := make(map[model.Status]int, len(layout.Columns))
	for i, s := range layout.Columns {
		cols[i] = Column{Status: s, Cards: []model.Card{}}
		index[s] = i
	}
	for _, c := range cards {
		i, ok := index[c.Status]
		if !ok {
			i = len(cols)
			index[c.Status] = i
			cols = append(cols, Column{Status: c.Status, Cards: []model.Card{}})
		}
		cols[i].Cards = append(cols[i].Cards, c)
	}
	return cols
}

// View runs Project then Group
func View(cards []model.Card, f Filter, layout model.Layout, today time.Time) []Column {
	return Group(Project(cards, f, layout, today), layout)
}

// VisibleIDs returns the IDs of every card in cols
func VisibleIDs(cols []Column) []string {
	var ids []string
	for _, c := range cols {
		ids = append(ids, c.IDs()...)
	}
	return ids
}
