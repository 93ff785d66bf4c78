package views

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/staffsphere/internal/board"
	"github.com/dori/staffsphere/internal/export"
	"github.com/dori/staffsphere/internal/model"
	"github.com/dori/staffsphere/internal/ui/theme"
	"github.com/muesli/reflow/truncate"
	"go.uber.org/multierr"
)

const (
	loadTimeout     = 15 * time.Second
	mutationTimeout = 30 * time.Second
)

// Backend is what a board view needs from the server
type Backend interface {
	Board(kind model.Kind) board.API
	Employees(ctx context.Context) ([]model.Employee, error)
}

// BoardMode represents the current input mode
type BoardMode int

const (
	BoardModeNormal BoardMode = iota
	BoardModeAdd
	BoardModeEdit
	BoardModeSearch
	BoardModeConfirmDelete
	BoardModeConfirmBulkDelete
	BoardModeBulkMove
)

// BoardOptions configures a BoardView
type BoardOptions struct {
	BulkConcurrency int
	// ExportDir receives CSV exports; empty means the working directory.
	ExportDir string
	Now       func() time.Time
}

// BoardView is a kanban board of tasks or projects
type BoardView struct {
	kind    model.Kind
	layout  model.Layout
	store   *board.Store
	ctrl    *board.Controller
	backend Backend

	exportDir string
	now       func() time.Time

	width  int
	height int

	// Task boards show one project; empty until a project is opened.
	// requested is the project being opened; parentID and title only
	// follow it once its cards are in the store.
	parentID       string
	title          string
	requested      string
	requestedTitle string
	loaded         bool

	employees []model.Employee
	filter    board.Filter

	// Navigation state
	currentColumn int
	cursorRow     int
	columnScroll  map[int]int

	mode      BoardMode
	textInput textinput.Model
	editID    string
	deleteID  string
	prevQuery string
}

// NewBoardView creates a board view of the given kind
func NewBoardView(kind model.Kind, backend Backend, opts BoardOptions) BoardView {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	layout := model.LayoutFor(kind)
	api := backend.Board(kind)
	store := board.NewStore(api)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return BoardView{
		kind:         kind,
		layout:       layout,
		store:        store,
		ctrl:         board.NewController(store, api, layout, board.WithBulkConcurrency(opts.BulkConcurrency)),
		backend:      backend,
		exportDir:    opts.ExportDir,
		now:          now,
		filter:       board.DefaultFilter(),
		columnScroll: make(map[int]int),
		textInput:    ti,
	}
}

// Init loads the board. A task board without a project has nothing to load.
func (v BoardView) Init() tea.Cmd {
	return v.Resync()
}

// SetSize sets the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	return v
}

// Kind returns which entity the board shows
func (v BoardView) Kind() model.Kind { return v.kind }

// ParentID returns the project of a task board
func (v BoardView) ParentID() string { return v.parentID }

// Store returns the board's card store
func (v BoardView) Store() *board.Store { return v.store }

// Open switches a task board to another project and loads it. The board
// keeps showing the current project until the load succeeds. An empty
// projectID closes the board.
func (v BoardView) Open(projectID, title string) (BoardView, tea.Cmd) {
	v.requested = projectID
	v.requestedTitle = title
	if projectID == "" {
		return v.commit("", ""), nil
	}
	return v, v.Resync()
}

// commit makes parentID the project on screen
func (v BoardView) commit(parentID, title string) BoardView {
	if parentID != v.parentID {
		v.currentColumn = 0
		v.cursorRow = 0
		v.columnScroll = make(map[int]int)
		v.mode = BoardModeNormal
		v.textInput.Blur()
		v.editID, v.deleteID = "", ""
	}
	v.parentID = parentID
	v.title = title
	return v
}

// Resync returns a command that reloads the board from the server,
// clearing the selection
func (v BoardView) Resync() tea.Cmd {
	if v.kind == model.KindTask && v.requested == "" {
		return nil
	}
	kind, parentID, title, store := v.kind, v.requested, v.requestedTitle, v.store
	return v.fetch(func(ctx context.Context) (boardLoadedMsg, error) {
		err := store.Load(ctx, parentID)
		return boardLoadedMsg{kind: kind, parentID: parentID, title: title, full: true, fetched: err == nil}, err
	})
}

// Refresh returns a command that fetches the project on screen again and
// keeps the selection. Nothing is fetched while another project is opening.
func (v BoardView) Refresh() tea.Cmd {
	if v.kind == model.KindTask && v.parentID == "" {
		return nil
	}
	if v.requested != v.parentID {
		return nil
	}
	kind, parentID, store := v.kind, v.parentID, v.store
	return v.fetch(func(ctx context.Context) (boardLoadedMsg, error) {
		err := store.Refresh(ctx, parentID)
		return boardLoadedMsg{kind: kind, parentID: parentID, fetched: err == nil}, err
	})
}

func (v BoardView) fetch(load func(ctx context.Context) (boardLoadedMsg, error)) tea.Cmd {
	backend := v.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		msg, err := load(ctx)
		employees, eerr := backend.Employees(ctx)
		if eerr != nil {
			eerr = fmt.Errorf("failed to load employees: %w", eerr)
		}
		msg.employees = employees
		msg.err = multierr.Append(err, eerr)
		return msg
	}
}

// Update handles messages
func (v BoardView) Update(msg tea.Msg) (BoardView, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.employees != nil {
			v.employees = msg.employees
		}
		var cmds []tea.Cmd
		if msg.full && msg.parentID == v.requested {
			if msg.fetched {
				v = v.commit(msg.parentID, msg.title)
				v.loaded = true
			} else {
				v.requested, v.requestedTitle = v.parentID, v.title
			}
		} else if msg.full && msg.fetched && msg.parentID != v.parentID && v.requested == v.parentID {
			// a superseded open finished last and replaced the store
			cmds = append(cmds, v.Resync())
		}
		if msg.fetched && msg.parentID == v.parentID {
			v.loaded = true
		}
		v.clampCursor()
		if msg.err != nil {
			cmds = append(cmds, errorCmd(msg.err))
		}
		return v, tea.Batch(cmds...)

	case mutationDoneMsg:
		v.clampCursor()
		if msg.err != nil {
			return v, errorCmd(msg.err)
		}
		if strings.HasPrefix(msg.op, "bulk") {
			return v, statusCmd(msg.op + " done")
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case BoardModeAdd:
			return v.handleAddMode(msg)
		case BoardModeEdit:
			return v.handleEditMode(msg)
		case BoardModeSearch:
			return v.handleSearchMode(msg)
		case BoardModeConfirmDelete, BoardModeConfirmBulkDelete:
			return v.handleConfirmMode(msg)
		case BoardModeBulkMove:
			return v.handleBulkMoveMode(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.IsInputMode() {
		var cmd tea.Cmd
		v.textInput, cmd = v.textInput.Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleNormalMode handles keys in normal mode
func (v BoardView) handleNormalMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	if v.kind == model.KindTask && v.parentID == "" {
		return v, nil
	}
	cols := v.columns()

	switch msg.String() {
	// Column navigation
	case "h", "left":
		if v.currentColumn > 0 {
			v.currentColumn--
			v.clampCursor()
		}
		return v, nil

	case "l", "right":
		if v.currentColumn < len(cols)-1 {
			v.currentColumn++
			v.clampCursor()
		}
		return v, nil

	// Row navigation
	case "j", "down":
		if v.cursorRow < len(v.columnCards(cols))-1 {
			v.cursorRow++
			v.ensureCursorVisible()
		}
		return v, nil

	case "k", "up":
		if v.cursorRow > 0 {
			v.cursorRow--
			v.ensureCursorVisible()
		}
		return v, nil

	case "g":
		v.cursorRow = 0
		v.columnScroll[v.currentColumn] = 0
		return v, nil

	case "G":
		if n := len(v.columnCards(cols)); n > 0 {
			v.cursorRow = n - 1
			v.ensureCursorVisible()
		}
		return v, nil

	// Move card between columns
	case "H":
		return v.moveCard(cols, -1)

	case "L":
		return v.moveCard(cols, 1)

	// Selection
	case " ":
		if card, ok := v.cursorCard(cols); ok {
			v.store.Toggle(card.ID)
		}
		return v, nil

	case "V":
		v.store.SelectAllVisible(board.VisibleIDs(cols))
		return v, statusCmd(fmt.Sprintf("%d selected", len(v.store.Selected())))

	case "esc":
		if len(v.store.Selected()) > 0 {
			v.store.ClearSelection()
			return v, statusCmd("Selection cleared")
		}
		if v.filter.Active() {
			sort := v.filter.Sort
			v.filter = board.DefaultFilter()
			v.filter.Sort = sort
			v.resetScroll()
			return v, statusCmd("Filters cleared")
		}
		return v, nil

	// Card actions
	case "a":
		v.mode = BoardModeAdd
		v.textInput.SetValue("")
		v.textInput.Placeholder = fmt.Sprintf("New %s...", v.kind)
		v.textInput.Focus()
		return v, nil

	case "e":
		if card, ok := v.cursorCard(cols); ok {
			v.mode = BoardModeEdit
			v.editID = card.ID
			v.textInput.SetValue(card.Title)
			v.textInput.Placeholder = ""
			v.textInput.Focus()
			v.textInput.CursorEnd()
		}
		return v, nil

	case "enter":
		if v.kind == model.KindProject {
			if card, ok := v.cursorCard(cols); ok {
				if board.IsProvisional(card.ID) {
					return v, errorCmd(errors.New("project is still being created"))
				}
				return v, func() tea.Msg {
					return OpenProjectRequest{ProjectID: card.ID, Title: card.Title}
				}
			}
		}
		return v, nil

	case "p":
		if card, ok := v.cursorCard(cols); ok {
			card.Priority = card.Priority.Next()
			m, err := v.ctrl.Edit(card.ID, card)
			return v, v.run("edit", m, err)
		}
		return v, nil

	case "u":
		if card, ok := v.cursorCard(cols); ok {
			card.AssignedTo = v.nextAssignee(card.AssignedTo, false)
			m, err := v.ctrl.Edit(card.ID, card)
			return v, v.run("edit", m, err)
		}
		return v, nil

	case "d":
		if card, ok := v.cursorCard(cols); ok {
			v.deleteID = card.ID
			v.mode = BoardModeConfirmDelete
		}
		return v, nil

	case "D":
		if len(v.store.Selected()) == 0 {
			return v, errorCmd(errors.New("nothing selected"))
		}
		v.mode = BoardModeConfirmBulkDelete
		return v, nil

	case "m":
		if len(v.store.Selected()) == 0 {
			return v, errorCmd(errors.New("nothing selected"))
		}
		v.mode = BoardModeBulkMove
		return v, nil

	// Filters
	case "/":
		v.mode = BoardModeSearch
		v.prevQuery = v.filter.Search
		v.textInput.SetValue(v.filter.Search)
		v.textInput.Placeholder = "Search..."
		v.textInput.Focus()
		v.textInput.CursorEnd()
		return v, nil

	case "f":
		v.filter.Priority = nextPriorityFilter(v.filter.Priority)
		v.resetScroll()
		return v, nil

	case "A":
		v.filter.Assignee = v.nextAssignee(v.filter.Assignee, true)
		v.resetScroll()
		return v, nil

	case "o":
		v.filter.OverdueOnly = !v.filter.OverdueOnly
		v.resetScroll()
		return v, nil

	case "s":
		v.filter.Sort.Field = v.filter.Sort.Field.Next()
		return v, nil

	case "S":
		v.filter.Sort.Desc = !v.filter.Sort.Desc
		return v, nil

	case "r":
		return v, v.Resync()

	case "x":
		return v, v.exportCSV()
	}

	return v, nil
}

// handleAddMode handles keys in add mode
func (v BoardView) handleAddMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(v.textInput.Value())
		if title == "" {
			return v, nil
		}
		v.mode = BoardModeNormal
		v.textInput.Blur()
		draft := model.Card{Title: title}
		if cols := v.columns(); v.currentColumn < len(cols) && v.layout.Has(cols[v.currentColumn].Status) {
			draft.Status = cols[v.currentColumn].Status
		}
		m, err := v.ctrl.Create(draft)
		return v, v.run("create", m, err)
	case "esc":
		v.mode = BoardModeNormal
		v.textInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// handleEditMode handles keys in edit mode
func (v BoardView) handleEditMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(v.textInput.Value())
		if title == "" {
			return v, nil
		}
		v.mode = BoardModeNormal
		v.textInput.Blur()
		id := v.editID
		v.editID = ""
		card, ok := v.store.Find(id)
		if !ok {
			return v, errorCmd(errors.New("card no longer exists"))
		}
		card.Title = title
		m, err := v.ctrl.Edit(id, card)
		return v, v.run("edit", m, err)
	case "esc":
		v.mode = BoardModeNormal
		v.textInput.Blur()
		v.editID = ""
		return v, nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// handleSearchMode filters as the query is typed; esc restores the previous query
func (v BoardView) handleSearchMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v.mode = BoardModeNormal
		v.textInput.Blur()
		v.filter.Search = strings.TrimSpace(v.textInput.Value())
		v.resetScroll()
		return v, nil
	case "esc":
		v.mode = BoardModeNormal
		v.textInput.Blur()
		v.filter.Search = v.prevQuery
		v.resetScroll()
		return v, nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	v.filter.Search = v.textInput.Value()
	v.resetScroll()
	return v, cmd
}

// handleConfirmMode handles y/n for single and bulk deletes
func (v BoardView) handleConfirmMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		mode := v.mode
		v.mode = BoardModeNormal
		if mode == BoardModeConfirmBulkDelete {
			m, err := v.ctrl.BulkDelete()
			return v, v.run("bulk delete", m, err)
		}
		id := v.deleteID
		v.deleteID = ""
		m, err := v.ctrl.Delete(id)
		v.clampCursor()
		return v, v.run("delete", m, err)
	case "n", "N", "esc":
		v.mode = BoardModeNormal
		v.deleteID = ""
	}
	return v, nil
}

// handleBulkMoveMode picks the target column by its number
func (v BoardView) handleBulkMoveMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	s := msg.String()
	if s == "esc" {
		v.mode = BoardModeNormal
		return v, nil
	}
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(v.layout.Columns) {
		v.mode = BoardModeNormal
		m, err := v.ctrl.BulkMove(v.layout.Columns[s[0]-'1'])
		if m == nil && err == nil {
			return v, statusCmd("Selection already in that column")
		}
		return v, v.run("bulk move", m, err)
	}
	return v, nil
}

// moveCard moves the cursor card one column and keeps the cursor on it
func (v BoardView) moveCard(cols []board.Column, direction int) (BoardView, tea.Cmd) {
	card, ok := v.cursorCard(cols)
	if !ok {
		return v, nil
	}
	target := v.currentColumn + direction
	if target < 0 || target >= len(v.layout.Columns) {
		return v, nil
	}

	m, err := v.ctrl.OnReorder(card.ID, cols[v.currentColumn].Status, v.layout.Columns[target])
	if err != nil {
		return v, errorCmd(err)
	}

	v.currentColumn = target
	for i, c := range v.columnCards(v.columns()) {
		if c.ID == card.ID {
			v.cursorRow = i
			break
		}
	}
	v.ensureCursorVisible()
	return v, v.run("move", m, nil)
}

// run sends the server half of a change. The local half is already visible.
func (v BoardView) run(op string, m board.Mutation, err error) tea.Cmd {
	if err != nil {
		return errorCmd(err)
	}
	if m == nil {
		return nil
	}
	kind := v.kind
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return mutationDoneMsg{kind: kind, op: op, err: m(ctx)}
	}
}

// exportCSV writes the filtered and sorted cards to a new file
func (v BoardView) exportCSV() tea.Cmd {
	now := v.now()
	cards := board.Project(v.store.Cards(), v.filter, v.layout, now)
	employees := v.employees
	path := filepath.Join(v.exportDir, fmt.Sprintf("staffsphere-%ss-%s.csv", v.kind, now.Format("20060102-150405")))

	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("export: %w", err)}
		}
		if err := export.WriteCSV(f, cards, employees); err != nil {
			f.Close()
			return ErrorMsg{Err: fmt.Errorf("export: %w", err)}
		}
		if err := f.Close(); err != nil {
			return ErrorMsg{Err: fmt.Errorf("export: %w", err)}
		}
		return StatusMsg{Message: fmt.Sprintf("Exported %d %ss to %s", len(cards), v.kind, path)}
	}
}

// nextAssignee cycles through the employees. withAll starts and ends the
// cycle at board.AssigneeAll, otherwise at unassigned.
func (v BoardView) nextAssignee(current string, withAll bool) string {
	first := ""
	if withAll {
		first = board.AssigneeAll
		if current == "" {
			current = board.AssigneeAll
		}
	}
	ids := []string{first}
	for _, e := range v.employees {
		ids = append(ids, e.ID)
	}
	for i, id := range ids {
		if id == current {
			return ids[(i+1)%len(ids)]
		}
	}
	return first
}

func nextPriorityFilter(p model.Priority) model.Priority {
	switch p {
	case model.PriorityHigh:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityLow
	case model.PriorityLow:
		return board.PriorityAll
	default:
		return model.PriorityHigh
	}
}

func (v BoardView) columns() []board.Column {
	return board.View(v.store.Cards(), v.filter, v.layout, v.now())
}

func (v BoardView) columnCards(cols []board.Column) []model.Card {
	if v.currentColumn >= len(cols) {
		return nil
	}
	return cols[v.currentColumn].Cards
}

func (v BoardView) cursorCard(cols []board.Column) (model.Card, bool) {
	cards := v.columnCards(cols)
	if v.cursorRow < 0 || v.cursorRow >= len(cards) {
		return model.Card{}, false
	}
	return cards[v.cursorRow], true
}

// clampCursor ensures cursor is valid for current column
func (v *BoardView) clampCursor() {
	cols := v.columns()
	if v.currentColumn >= len(cols) {
		v.currentColumn = max(len(cols)-1, 0)
	}
	if n := len(v.columnCards(cols)); v.cursorRow >= n {
		v.cursorRow = max(n-1, 0)
	}
	v.ensureCursorVisible()
}

// ensureCursorVisible adjusts scroll to keep cursor in view
func (v *BoardView) ensureCursorVisible() {
	visible := v.visibleItemCount()
	col := v.currentColumn
	if v.cursorRow >= v.columnScroll[col]+visible {
		v.columnScroll[col] = v.cursorRow - visible + 1
	}
	if v.cursorRow < v.columnScroll[col] {
		v.columnScroll[col] = v.cursorRow
	}
}

func (v *BoardView) resetScroll() {
	v.cursorRow = 0
	v.columnScroll = make(map[int]int)
}

// visibleItemCount returns how many cards fit in the column height.
// Title, header row, borders, scroll indicators and footer take 8 lines.
func (v *BoardView) visibleItemCount() int {
	if n := v.height - 8; n > 0 {
		return n
	}
	return 1
}

// IsInputMode returns whether the view is reading text or a confirmation
func (v BoardView) IsInputMode() bool {
	return v.mode != BoardModeNormal
}

// View renders the board
func (v BoardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	t := theme.Current.Theme
	styles := theme.Current.Styles

	if v.kind == model.KindTask && v.parentID == "" {
		return styles.Label.Render("No project open. Press 2 for projects, then enter on one.")
	}

	cols := v.columns()
	all := board.Group(v.store.Cards(), v.layout)
	names := model.EmployeeNames(v.employees)
	today := v.now()

	colWidth := (v.width - 2) / max(len(cols), 1)
	if colWidth < 24 {
		colWidth = 24
	}
	visible := v.visibleItemCount()

	var headers, rendered []string
	for i, col := range cols {
		active := i == v.currentColumn
		header := fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Cards))
		if v.filter.Active() && i < len(all) && len(all[i].Cards) != len(col.Cards) {
			header = fmt.Sprintf("%s (%d/%d)", col.Status.Label(), len(col.Cards), len(all[i].Cards))
		}
		hs := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.ColumnColor(v.layout.Index(col.Status), len(v.layout.Columns))).
			Width(colWidth).
			Align(lipgloss.Center)
		if active {
			hs = hs.Background(t.Highlight)
		}
		headers = append(headers, hs.Render(header))

		start := min(v.columnScroll[i], len(col.Cards))
		end := min(start+visible, len(col.Cards))

		var items []string
		if start > 0 {
			items = append(items, styles.Label.Width(colWidth-4).Align(lipgloss.Center).Render(fmt.Sprintf("↑ %d more", start)))
		}
		for j := start; j < end; j++ {
			items = append(items, v.renderCard(col.Cards[j], active && j == v.cursorRow, colWidth-4, names, today))
		}
		if end < len(col.Cards) {
			items = append(items, styles.Label.Width(colWidth-4).Align(lipgloss.Center).Render(fmt.Sprintf("↓ %d more", len(col.Cards)-end)))
		}

		content := strings.Join(items, "\n")
		if len(col.Cards) == 0 {
			content = styles.Label.Italic(true).Render("(empty)")
		}
		cs := styles.Column
		if active {
			cs = styles.ColumnActive
		}
		rendered = append(rendered, cs.Width(colWidth).Height(visible+2).Render(content))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderTitle(names),
		lipgloss.JoinHorizontal(lipgloss.Top, headers...),
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		v.renderFooter(),
	)
}

func (v BoardView) renderCard(c model.Card, cursor bool, width int, names map[string]string, today time.Time) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	marker := " "
	if v.store.IsSelected(c.ID) {
		marker = styles.Marker.Render("●")
	}

	var priority string
	switch c.Priority {
	case model.PriorityHigh:
		priority = lipgloss.NewStyle().Foreground(t.PriorityHigh).Render("▲")
	case model.PriorityMedium:
		priority = lipgloss.NewStyle().Foreground(t.PriorityMedium).Render("●")
	default:
		priority = lipgloss.NewStyle().Foreground(t.PriorityLow).Render("▽")
	}

	var suffix string
	if c.DueDate != nil {
		due := " " + c.DueDate.Time(time.Local).Format("Jan 2")
		if c.IsOverdue(today, v.layout.Done) {
			suffix += styles.CardOverdue.Render(due)
		} else {
			suffix += styles.DueDate.Render(due)
		}
	}
	if fields := strings.Fields(names[c.AssignedTo]); len(fields) > 0 {
		suffix += styles.Label.Render(" @" + fields[0])
	}

	title := truncateTitle(c.Title, width-6-lipgloss.Width(suffix))
	if c.Status == v.layout.Done {
		title = styles.CardDone.Render(title)
	}
	if board.IsProvisional(c.ID) {
		title = styles.Label.Render(title + " …")
	}

	cs := styles.Card.Width(width)
	if cursor {
		cs = styles.CardCursor.Width(width)
	}
	return cs.Render(fmt.Sprintf("%s%s %s%s", marker, priority, title, suffix))
}

func (v BoardView) renderTitle(names map[string]string) string {
	t := theme.Current.Theme

	title := "Projects"
	if v.kind == model.KindTask {
		title = "Tasks · " + v.title
	}
	if !v.loaded || v.requested != v.parentID {
		title += " (loading)"
	}

	parts := []string{"sort: " + v.filter.Sort.Field.String()}
	if v.filter.Sort.Desc {
		parts[0] += " ↓"
	} else {
		parts[0] += " ↑"
	}
	if v.filter.Search != "" {
		parts = append(parts, "search: "+v.filter.Search)
	}
	if v.filter.Priority != "" && v.filter.Priority != board.PriorityAll {
		parts = append(parts, "priority: "+string(v.filter.Priority))
	}
	if v.filter.Assignee != "" && v.filter.Assignee != board.AssigneeAll {
		name := v.filter.Assignee
		if n, ok := names[name]; ok {
			name = n
		}
		parts = append(parts, "assignee: "+name)
	}
	if v.filter.OverdueOnly {
		parts = append(parts, "overdue")
	}
	if n := len(v.store.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}

	return lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Render(title) +
		"  " + lipgloss.NewStyle().Foreground(t.Info).Render("["+strings.Join(parts, " | ")+"]")
}

func (v BoardView) renderFooter() string {
	styles := theme.Current.Styles
	input := styles.Input.Width(max(v.width-4, 10))

	switch v.mode {
	case BoardModeAdd:
		return input.Render(fmt.Sprintf("Add %s: %s", v.kind, v.textInput.View()))
	case BoardModeEdit:
		return input.Render("Edit: " + v.textInput.View())
	case BoardModeSearch:
		return input.Render("Search: " + v.textInput.View())
	case BoardModeConfirmDelete:
		title := ""
		if c, ok := v.store.Find(v.deleteID); ok {
			title = c.Title
		}
		return styles.Confirm.Render(fmt.Sprintf("Delete '%s'? (y/n)", title))
	case BoardModeConfirmBulkDelete:
		return styles.Confirm.Render(fmt.Sprintf("Delete %d selected %ss? (y/n)", len(v.store.Selected()), v.kind))
	case BoardModeBulkMove:
		var opts []string
		for i, s := range v.layout.Columns {
			opts = append(opts, fmt.Sprintf("%d: %s", i+1, s.Label()))
		}
		return styles.Confirm.Render(fmt.Sprintf("Move %d selected to ", len(v.store.Selected()))) +
			styles.Label.Render(strings.Join(opts, " • ")+" • esc: cancel")
	}
	return ""
}

func truncateTitle(s string, n int) string {
	return truncate.StringWithTail(s, uint(max(n, 4)), "…")
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

func statusCmd(msg string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Message: msg} }
}
