package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/staffsphere/internal/client"
	"github.com/dori/staffsphere/internal/ui"
	"github.com/dori/staffsphere/internal/ui/theme"
	"github.com/dori/staffsphere/internal/ui/views"
	"github.com/spf13/cobra"
)

var (
	boardProject string
	boardTheme   string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the terminal board",
	Long: `Open the terminal kanban board against client.server_url.

Without --project the project board is shown first; press enter on a
project to open its tasks. Set ui.log_file or STAFFSPHERE_DEBUG=1 to log
to a file while the board is on screen.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().StringVar(&boardProject, "project", "", "Open this project's task board")
	boardCmd.Flags().StringVar(&boardTheme, "theme", "", "Theme name (nord, gruvbox)")
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logPath := cfg.UI.LogFile
	if logPath == "" && os.Getenv("STAFFSPHERE_DEBUG") == "1" {
		logPath = filepath.Join(os.TempDir(), "staffsphere-debug.log")
	}
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "staffsphere")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		// the alt screen owns the terminal
		log.SetOutput(io.Discard)
	}

	name := cfg.UI.Theme
	if boardTheme != "" {
		name = boardTheme
	}
	t, ok := theme.ByName(name)
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	theme.SetTheme(t)

	c := client.New(cfg.Client.ServerURL, cfg.Client.Token)
	opts := ui.Options{
		Backend:        c,
		ProjectID:      boardProject,
		ResyncInterval: cfg.Client.ResyncInterval,
		Board: views.BoardOptions{
			BulkConcurrency: cfg.Client.BulkConcurrency,
		},
	}
	if cfg.Client.Feed {
		opts.Subscribe = c.Subscribe
	}
	if boardProject != "" {
		title, err := projectTitle(ctx, c, boardProject)
		if err != nil {
			return err
		}
		opts.ProjectTitle = title
	}

	p := tea.NewProgram(ui.NewRootModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

func projectTitle(ctx context.Context, c *client.Client, id string) (string, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load projects: %w", err)
	}
	for _, p := range projects {
		if p.ID == id {
			return p.Title, nil
		}
	}
	return "", fmt.Errorf("project %q not found", id)
}
