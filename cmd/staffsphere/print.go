package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dori/staffsphere/internal/board"
	"github.com/dori/staffsphere/internal/client"
	"github.com/dori/staffsphere/internal/export"
	"github.com/dori/staffsphere/internal/model"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// queryFlags are the board selection and projection flags of print and export
type queryFlags struct {
	project  string
	search   string
	priority string
	assignee string
	overdue  bool
	sort     string
	desc     bool
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.project, "project", "", "Project ID (default: the project board)")
	cmd.Flags().StringVar(&q.search, "search", "", "Only cards whose title or description contains this")
	cmd.Flags().StringVar(&q.priority, "priority", "", "Only this priority (LOW, MEDIUM, HIGH)")
	cmd.Flags().StringVar(&q.assignee, "assignee", "", "Only this employee (ID or name)")
	cmd.Flags().BoolVar(&q.overdue, "overdue", false, "Only overdue cards")
	cmd.Flags().StringVar(&q.sort, "sort", "due", "Sort by title, due, priority or none")
	cmd.Flags().BoolVar(&q.desc, "desc", false, "Sort descending")
}

func (q queryFlags) kind() model.Kind {
	if q.project == "" {
		return model.KindProject
	}
	return model.KindTask
}

// filter turns the flags into a projection filter
func (q queryFlags) filter(employees []model.Employee) (board.Filter, error) {
	f := board.DefaultFilter()
	f.Search = q.search
	f.OverdueOnly = q.overdue
	f.Sort.Desc = q.desc

	field, ok := board.ParseSortField(q.sort)
	if !ok {
		return f, fmt.Errorf("unknown sort field %q", q.sort)
	}
	f.Sort.Field = field

	if q.priority != "" {
		p := model.Priority(strings.ToUpper(q.priority))
		if !p.Valid() {
			return f, fmt.Errorf("unknown priority %q", q.priority)
		}
		f.Priority = p
	}

	if q.assignee != "" {
		f.Assignee = ""
		for _, e := range employees {
			if e.ID == q.assignee || strings.EqualFold(e.Name, q.assignee) {
				f.Assignee = e.ID
				break
			}
		}
		if f.Assignee == "" {
			return f, fmt.Errorf("unknown employee %q", q.assignee)
		}
	}
	return f, nil
}

// fetch loads the board the flags select
func (q queryFlags) fetch(ctx context.Context) ([]model.Card, []model.Employee, board.Filter, error) {
	c := client.New(cfg.Client.ServerURL, cfg.Client.Token)
	cards, err := c.Board(q.kind()).List(ctx, q.project)
	if err != nil {
		return nil, nil, board.Filter{}, fmt.Errorf("failed to load board: %w", err)
	}
	employees, err := c.Employees(ctx)
	if err != nil {
		return nil, nil, board.Filter{}, fmt.Errorf("failed to load employees: %w", err)
	}
	f, err := q.filter(employees)
	if err != nil {
		return nil, nil, board.Filter{}, err
	}
	return cards, employees, f, nil
}

var (
	printQuery  queryFlags
	exportQuery queryFlags
	exportOut   string
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print a board grouped by column",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, employees, f, err := printQuery.fetch(cmd.Context())
		if err != nil {
			return err
		}
		layout := model.LayoutFor(printQuery.kind())
		now := time.Now()
		printBoard(cmd.OutOrStdout(), board.View(cards, f, layout, now), layout, model.EmployeeNames(employees), now)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered and sorted cards of a board as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, employees, f, err := exportQuery.fetch(cmd.Context())
		if err != nil {
			return err
		}
		projected := board.Project(cards, f, model.LayoutFor(exportQuery.kind()), time.Now())

		if exportOut == "" || exportOut == "-" {
			return export.WriteCSV(cmd.OutOrStdout(), projected, employees)
		}
		out, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(out, projected, employees); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d cards to %s\n", len(projected), exportOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(printCmd, exportCmd)
	printQuery.register(printCmd)
	exportQuery.register(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
}

// printBoard writes each column with its cards
func printBoard(w io.Writer, cols []board.Column, layout model.Layout, names map[string]string, today time.Time) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Cards))))
		if len(col.Cards) == 0 {
			fmt.Fprintf(w, "  %s\n", gray("(empty)"))
			continue
		}
		for _, c := range col.Cards {
			var prio string
			switch c.Priority {
			case model.PriorityHigh:
				prio = red("▲")
			case model.PriorityMedium:
				prio = yellow("●")
			default:
				prio = green("▽")
			}
			line := fmt.Sprintf("  %s %s", prio, c.Title)
			if c.DueDate != nil {
				due := "due " + c.DueDate.String()
				if c.IsOverdue(today, layout.Done) {
					due = red(due + " (overdue)")
				}
				line += "  " + due
			}
			if name, ok := names[c.AssignedTo]; ok {
				line += "  " + gray("@"+name)
			}
			fmt.Fprintf(w, "%s  %s\n", line, gray(c.ID))
		}
	}
}
