package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"automationhub/internal/launcher"
	"automationhub/internal/watch"
)

var envConda bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the Python environment without launching",
}

var envEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the environment if missing and install requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		l := launcher.New(cfg, newExecutor(), projectDir, launchVariant(envConda))
		if err := l.EnsureOnly(ctx); err != nil {
			return err
		}

		st := l.Status(ctx)
		fmt.Printf("Environment ready (%s)\n", st.Variant)
		if st.Interpreter != "" {
			fmt.Printf("  interpreter: %s\n", st.Interpreter)
		}
		return nil
	},
}

var envStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report interpreter, environment, and requirements state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		l := launcher.New(cfg, newExecutor(), projectDir, launchVariant(envConda))
		st := l.Status(ctx)

		fmt.Printf("Variant:      %s\n", st.Variant)
		if st.Interpreter != "" {
			if st.InterpreterVersion != "" {
				fmt.Printf("Interpreter:  %s (%s)\n", st.Interpreter, st.InterpreterVersion)
			} else {
				fmt.Printf("Interpreter:  %s\n", st.Interpreter)
			}
		} else {
			fmt.Println("Interpreter:  not found")
		}

		switch st.Variant {
		case launcher.VariantConda:
			fmt.Printf("Conda env:    %s (%s)\n", st.CondaEnvName, presentWord(st.EnvPresent))
		default:
			fmt.Printf("Env dir:      %s (%s)\n", st.EnvPath, presentWord(st.EnvPresent))
		}

		req := st.Requirements
		if req.Present {
			fmt.Printf("Requirements: %s (%d packages, modified %s)\n",
				req.Path, req.Packages, req.ModTime.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("Requirements: %s (missing)\n", req.Path)
		}
		fmt.Printf("State:        %s\n", st.State)
		return nil
	},
}

var envWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reinstall requirements whenever the manifest changes",
	Long: `Watch monitors the requirements manifest and reinstalls dependencies
into the environment each time the file settles after a change. Install
failures are logged and watching continues. Stop with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		manifest := cfg.Python.Requirements
		if !filepath.IsAbs(manifest) {
			manifest = filepath.Join(projectDir, manifest)
		}

		l := launcher.New(cfg, newExecutor(), projectDir, launchVariant(envConda))
		w, err := watch.New(manifest, l.EnsureOnly)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", w.Manifest())
		<-ctx.Done()
		w.Stop()

		stats := w.GetStats()
		fmt.Printf("Stopped: %d events, %d installs (%d failed)\n",
			stats.EventsSeen, stats.InstallsRun, stats.InstallFailures)
		return nil
	},
}

func init() {
	envCmd.PersistentFlags().BoolVar(&envConda, "conda", false, "Use a named Conda environment instead of a venv")
	envCmd.AddCommand(envEnsureCmd)
	envCmd.AddCommand(envStatusCmd)
	envCmd.AddCommand(envWatchCmd)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func presentWord(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}
