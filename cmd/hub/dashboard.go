package main

import (
	"context"

	"automationhub/cmd/hub/tui"
	"automationhub/internal/launcher"
	"automationhub/internal/logging"
)

// runDashboard opens the interactive dashboard. The root command runs
// this when no subcommand is given.
func runDashboard() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	logging.TUI("Dashboard opened: db=%s", st.Path())

	executor := newExecutor()
	envStatus := func(ctx context.Context) launcher.EnvStatus {
		return launcher.New(cfg, executor, projectDir, launcher.VariantVenv).Status(ctx)
	}

	return tui.Run(tui.Deps{
		AppName:   cfg.Name,
		Version:   cfg.Version,
		Store:     st,
		EnvStatus: envStatus,
	})
}
