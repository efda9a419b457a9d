package cli

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardtally/internal/factory"
)

// session carries the configuration and the open App across one command
// line, or across every line of an interactive shell
type session struct {
	cfg     *Config
	cfgErr  error
	app     *factory.App
	ownsApp bool
	// interactive is set for commands run from inside the shell
	interactive bool
}

func newSession() *session {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = &Config{Storage: factory.StorageTypeSQLite, DBPath: defaultDBPath(), Output: "text"}
	}
	return &session{cfg: cfg, cfgErr: err}
}

// open validates the configuration and opens the App unless one is shared
func (s *session) open(cmd *cobra.Command) error {
	if s.cfgErr != nil {
		return s.cfgErr
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if s.app != nil {
		return nil
	}

	logger := s.cfg.Logger(cmd.ErrOrStderr())
	fc, err := s.cfg.FactoryConfig(logger)
	if err != nil {
		return err
	}
	app, err := factory.New(fc)
	if err != nil {
		return err
	}
	s.app = app
	s.ownsApp = true
	return nil
}

func (s *session) close() error {
	if s.app == nil || !s.ownsApp {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

func (s *session) output(cmd *cobra.Command) *Output {
	out := NewOutput(s.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr(), nil)
	if s.app != nil {
		out.loc = s.app.Report.Location()
	}
	return out
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newSession())
}

func newRootCmd(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardtally",
		Short: "Score keeper for zero-sum card games",
		Long: `cardtally keeps the score ledger for a table of card players.

Every round is a set of per-player scores that should sum to zero. The
running totals are recomputed after every change and an imbalance is
flagged so data-entry mistakes can be undone on the spot.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&s.cfg.Storage, "storage", s.cfg.Storage, "Storage backend: sqlite, memory, redis (env: CARDTALLY_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.DBPath, "db-path", s.cfg.DBPath, "SQLite database file (env: CARDTALLY_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.RedisURL, "redis-url", s.cfg.RedisURL, "Redis URL (env: CARDTALLY_REDIS_URL)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.TZ, "tz", s.cfg.TZ, "Time zone for dates (env: CARDTALLY_TZ)")
	rootCmd.PersistentFlags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "Output format: text, json (env: CARDTALLY_OUTPUT)")
	rootCmd.PersistentFlags().BoolVarP(&s.cfg.Verbose, "verbose", "v", s.cfg.Verbose, "Verbose logging")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd(s))
	rootCmd.AddCommand(newRoundCmd(s))
	rootCmd.AddCommand(newHistoryCmd(s))
	rootCmd.AddCommand(newTotalsCmd(s))
	rootCmd.AddCommand(newRoundsCmd(s))
	rootCmd.AddCommand(newDealerCmd(s))
	rootCmd.AddCommand(newExportCmd(s))
	rootCmd.AddCommand(newShellCmd(s))

	return rootCmd
}

// Run executes one command line and returns the process exit code
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := newSession()
	cmd := newRootCmd(s)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	err = errors.Join(err, s.close())
	if err != nil {
		NewOutput(s.cfg.Output, stdout, stderr, nil).PrintError(err)
		return 1
	}
	return 0
}

// Execute runs the root command
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
