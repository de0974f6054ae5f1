package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/weekplan/internal/config"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/sync"
	"github.com/existflow/weekplan/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what every command needs; tests swap its collaborators
type app struct {
	cfg     *config.Config
	cfgPath string
	open    func(ctx context.Context, cfg *config.Config) (*planner.Runtime, error)
	ask     func(msg string) (bool, error)
	isTTY   func() bool
}

func defaultApp() *app {
	return &app{
		cfgPath: config.Path(),
		open:    planner.Open,
		ask:     surveyConfirm,
		isTTY:   func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return newRootCmd(defaultApp()).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	var (
		serverURL  string
		dbPath     string
		logLevel   string
		logFile    string
		logConsole bool
	)

	root := &cobra.Command{
		Use:   "weekplan",
		Short: "Weekplan - a weekly board for your terminal",
		Long: `Weekplan is a weekly planner: a master backlog grouped by project plus
one column per weekday. It works offline and syncs with a weekplan server.

Run 'weekplan' without arguments to launch the interactive board.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(a.cfgPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v, using defaults\n", err)
				cfg = config.DefaultConfig()
			}

			// Override with CLI flags if provided
			configChanged := false
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerURL = serverURL
				configChanged = true
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
				configChanged = true
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
				configChanged = true
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
				configChanged = true
			}
			if flags.Changed("log-console") {
				cfg.LogConsole = logConsole
				configChanged = true
			}

			// Save config if changed via CLI flags
			if configChanged {
				if err := cfg.SaveTo(a.cfgPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Failed to save config: %v\n", err)
				}
			}
			a.cfg = cfg

			if err := logger.Init(cfg.Logger()); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger.Info("weekplan started", logger.F("command", cmd.CommandPath()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.isTTY() {
				return a.printBoard(cmd, "")
			}
			return a.runTUI(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Info("weekplan exiting", logger.F("command", cmd.CommandPath()))
			logger.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&serverURL, "server", "", "Weekplan server URL (saved; empty for local-only)")
	pf.StringVar(&dbPath, "db", "", "Path to the local cache (saved)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&logFile, "log-file", "", "Path to log file")
	pf.BoolVar(&logConsole, "log-console", false, "Enable console logging")

	root.AddCommand(
		newBoardCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newMoveCmd(a),
		newShowCmd(a),
		newDoneCmd(a),
		newDeleteCmd(a),
		newBinCmd(a),
		newCompletedCmd(a),
		newProjectCmd(a),
		newContextCmd(a),
		newSyncCmd(a),
		newClearCmd(a),
		newDriveCmd(a),
	)
	return root
}

func (a *app) runTUI(cmd *cobra.Command) error {
	return a.withRuntime(cmd, func(rt *planner.Runtime) error {
		rt.Start()
		opts := tui.Options{Errors: rt.Errors()}
		if rt.Client != nil {
			opts.Resync = rt.Resync
		}

		logger.Info("Launching TUI")
		p := tea.NewProgram(tui.NewModel(rt.Session, opts), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.Err(err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		logger.Info("TUI exited normally")
		return nil
	})
}

// withRuntime opens the planner, runs fn and waits for queued remote writes
// before closing. Writes that still failed are reported as warnings.
func (a *app) withRuntime(cmd *cobra.Command, fn func(rt *planner.Runtime) error) error {
	rt, err := a.open(cmd.Context(), a.cfg)
	if err != nil {
		return err
	}

	runErr := fn(rt)

	ctx, cancel := context.WithTimeout(context.Background(), a.flushTimeout())
	defer cancel()
	if err := rt.Close(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
	}
	if errs := rt.Errors(); errs != nil {
		for e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", e)
		}
	}
	return runErr
}

// flushTimeout bounds the wait for queued writes: every attempt may use the
// full request timeout plus its backoff
func (a *app) flushTimeout() time.Duration {
	s := a.cfg.Sync
	d := time.Duration(s.Retries+1) * (s.Timeout + s.Backoff)
	if d <= 0 {
		d = 30 * time.Second
	}
	return d
}

// client returns a bare server client for commands that only talk to the server
func (a *app) client() (*sync.Client, error) {
	if a.cfg.ServerURL == "" {
		return nil, fmt.Errorf("no server configured, set one with --server")
	}
	return sync.NewClient(a.cfg.ServerURL, a.cfg.Sync.Timeout), nil
}

// confirm asks before a destructive command unless --yes was given or
// confirmations are disabled in the config
func (a *app) confirm(cmd *cobra.Command, msg string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes || !a.cfg.ConfirmDelete {
		return true, nil
	}
	ok, err := a.ask(msg)
	if err != nil {
		return false, fmt.Errorf("confirmation failed (use --yes): %w", err)
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
	}
	return ok, nil
}

func surveyConfirm(msg string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: msg, Default: false}, &ok)
	return ok, err
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
