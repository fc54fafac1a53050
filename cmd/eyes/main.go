package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SaltyPakoda/computer-eyes/internal/config"
	"github.com/SaltyPakoda/computer-eyes/internal/prefs"
	"github.com/SaltyPakoda/computer-eyes/internal/reconcile"
	"github.com/SaltyPakoda/computer-eyes/internal/rig"
	"github.com/SaltyPakoda/computer-eyes/internal/ui"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to a TOML config overlay")
	prefsPath := flag.String("prefs", "", "override the preference store path")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadFile(*cfgPath)
		if err != nil {
			return err
		}
	}
	if *prefsPath != "" {
		cfg.PrefsPath = *prefsPath
	}

	ctx := context.Background()
	store, err := prefs.Open(ctx, cfg.PrefsPath)
	if err != nil {
		// Preferences are best-effort; run without them.
		store = nil
	}
	defer store.Close()

	factory := func() (rig.Rig, error) {
		sim := rig.NewSim(rig.SimOptions{
			MachineName: cfg.MachineName,
			InputName:   cfg.InputName,
		})
		sim.Start()
		return sim, nil
	}
	session, err := reconcile.NewSession(cfg, factory)
	if err != nil {
		return err
	}
	defer session.Close()

	p := tea.NewProgram(ui.New(cfg, session, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run panel: %w", err)
	}
	return nil
}
