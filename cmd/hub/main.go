package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"automationhub/internal/config"
	"automationhub/internal/execute"
	"automationhub/internal/logging"
	"automationhub/internal/store"
)

var (
	// Global flags
	verbose    bool
	projectDir string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hub",
	Short: "Automation Hub - Python app launcher and PDF automation toolkit",
	Long: `Automation Hub bootstraps an isolated Python environment (virtualenv
or named Conda environment), installs dependencies, and launches the
project's entry point. Around that launcher it carries the automation
modules the hub exists for: a PDF toolbox, template-driven PDF field
extraction with Excel/CSV export, and a background job scheduler.

State lives under .hub/ in the project directory (config.yaml, hub.db,
logs/).

Run without arguments to open the terminal dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if projectDir == "" {
			projectDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
		}
		projectDir, err = filepath.Abs(projectDir)
		if err != nil {
			return fmt.Errorf("failed to resolve project directory: %w", err)
		}

		cfg, err = config.Load(filepath.Join(projectDir, ".hub", "config.yaml"))
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// Category file logs (no-op unless debug_mode is on in config)
		if err := logging.Initialize(projectDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", err)
		}
		if err := logging.InitAudit(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit log unavailable: %v\n", err)
		}

		// Skip the console logger for the dashboard, which owns the terminal
		if cmd.Name() == "hub" && len(args) == 0 {
			return nil
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAudit()
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "Project directory (default: current)")

	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitWith flushes logs before handing a specific exit code to the OS.
// Used where a subcommand's exit status is part of its contract.
func exitWith(code int) {
	if logger != nil {
		_ = logger.Sync()
	}
	logging.CloseAudit()
	logging.CloseAll()
	os.Exit(code)
}

// openStore opens the project database, creating .hub/ on first use.
func openStore() (*store.Store, error) {
	path := cfg.Storage.DatabasePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, path)
	}
	return store.New(path)
}

// newExecutor builds the process executor every child process runs through.
func newExecutor() *execute.DirectExecutor {
	ec := execute.DefaultExecutorConfig()
	ec.DefaultWorkingDir = projectDir
	ec.DefaultTimeout = cfg.GetExecutionTimeout()
	if len(cfg.Execution.AllowedEnvVars) > 0 {
		ec.AllowedEnvironment = cfg.Execution.AllowedEnvVars
	}
	ec.AuditCallback = auditBridge
	return execute.NewDirectExecutorWithConfig(ec)
}

// auditBridge mirrors executor events into the audit trail.
func auditBridge(ev execute.AuditEvent) {
	entry := logging.AuditEvent{
		RunID:      ev.RunID,
		Command:    ev.Command.CommandString(),
		WorkingDir: ev.Command.WorkingDirectory,
	}
	switch ev.Type {
	case execute.AuditEventStart:
		entry.EventType = logging.AuditExecStart
	case execute.AuditEventKilled:
		entry.EventType = logging.AuditExecKilled
	case execute.AuditEventError:
		entry.EventType = logging.AuditExecError
	default:
		entry.EventType = logging.AuditExecComplete
	}
	if ev.Result != nil {
		entry.ExitCode = ev.Result.ExitCode
		entry.Success = ev.Result.Success
		entry.DurationMs = ev.Result.Duration.Milliseconds()
		entry.Error = ev.Result.Error
	}
	logging.RecordAudit(entry)
}

// versionCmd prints the version string.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s\n", cfg.Name, cfg.Version)
	},
}
