package cli

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/app"
	appsync "github.com/nhle/volunteer-board/internal/sync"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive activity board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	// Logs would draw over the alternate screen unless they go to a file.
	rt, err := opts.openRuntime(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer rt.Close()

	poller := appsync.New(rt.svc, appsync.Options{
		ReconcileInterval: rt.cfg.Lifecycle.PollInterval(),
		CatalogInterval:   time.Duration(rt.cfg.Catalog.RefreshIntervalSec) * time.Second,
		Logger:            rt.logger,
		Now:               rt.now,
	})

	m := app.New(rt.svc, poller, app.Options{
		Now:        rt.now,
		Config:     rt.cfg,
		ConfigPath: opts.configPath,
		Vault:      openVault,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	poller.Stop()
	return nil
}
