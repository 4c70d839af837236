package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"automationhub/internal/launcher"
)

var launchConda bool

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Bootstrap the Python environment and run the entry point",
	Long: `Launch runs the full bootstrap sequence: discover an interpreter,
create the environment if it is missing, install requirements, then run
the entry point and block until it exits.

A missing interpreter (or missing conda with --conda) and a failed
environment creation abort the launch with exit code 1. Dependency
install failures are logged and the launch proceeds. On completion the
process exits with the application's own exit code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		l := launcher.New(cfg, newExecutor(), projectDir, launchVariant(launchConda))

		fmt.Printf("%s v%s\n", cfg.Name, cfg.Version)
		fmt.Printf("Launching %s (%s)...\n", cfg.Python.EntryPoint, l.Bootstrapper().Variant())

		result, err := l.Launch(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			pauseForAck()
			exitWith(1)
		}

		if result.ExitCode != 0 {
			fmt.Printf("%s exited with code %d after %s\n",
				cfg.Python.EntryPoint, result.ExitCode, result.Duration.Round(time.Millisecond))
		}
		pauseForAck()
		exitWith(result.ExitCode)
		return nil
	},
}

func init() {
	launchCmd.Flags().BoolVar(&launchConda, "conda", false, "Use a named Conda environment instead of a venv")
}

// launchVariant maps the --conda flag onto the bootstrapper variant.
func launchVariant(conda bool) launcher.Variant {
	if conda {
		return launcher.VariantConda
	}
	return launcher.VariantVenv
}

// pauseForAck keeps the console window open until the user confirms,
// so failure text stays visible on double-click launches. Skipped when
// stdin is not a terminal.
func pauseForAck() {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return
	}
	fmt.Print("Press Enter to close...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
