package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"agencydesk/cmd/agencydesk/ui"
	"agencydesk/internal/resource"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Opens the full-screen dashboard: one tab per entity with list,
stats, create/edit dialogs, selection and bulk delete. Data loads
through the shared query cache, so switching back to a tab shows its
previous page instantly while a refresh runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		ordered := make([]*resource.Service, 0, len(entityOrder))
		for _, name := range entityOrder {
			ordered = append(ordered, services[name])
		}
		app := ui.NewApp(ordered, notices, sessions, cfg.Lists.PageSize)
		defer app.Close()

		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	},
}
