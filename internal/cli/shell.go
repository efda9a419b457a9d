package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

const shellPrompt = "cardtally> "

func newShellCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Each line is a cardtally command run
against the same open ledger, so "round undo" reverses the last round
entered in this session and the dealer rotates after every round.
Words are split like a POSIX shell, so quote names containing spaces:

  player add "Mary Jane" Bob

Type "exit" or "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.interactive {
				return errors.New("already in a shell")
			}

			out := s.output(cmd)
			if !out.IsJSON() {
				fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("cardtally shell"))
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(`Type "help" for commands, "exit" to quit.`))
				if names, err := s.app.Registry.Names(cmd.Context()); err == nil {
					if dealer, err := s.app.Dealer.Current(names); err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Dealer: %s\n", dealer)
					}
				}
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				if !out.IsJSON() {
					fmt.Fprint(cmd.OutOrStdout(), shellPrompt)
				}
				if !scanner.Scan() {
					break
				}

				fields, err := shellwords.Parse(scanner.Text())
				if err != nil {
					out.PrintError(fmt.Errorf("parse line: %w", err))
					continue
				}
				if len(fields) == 0 {
					continue
				}
				if fields[0] == "exit" || fields[0] == "quit" {
					return nil
				}

				s.runLine(cmd, fields)
			}

			if !out.IsJSON() {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return scanner.Err()
		},
	}
}

// runLine executes one shell line on a fresh command tree sharing the open App.
// Errors and panics are printed and the shell keeps going.
func (s *session) runLine(parent *cobra.Command, args []string) {
	logger := s.app.Logger
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("command", strings.Join(args, " ")),
			)
			s.output(parent).PrintError(fmt.Errorf("internal error: %v", r))
		}
	}()

	lineCfg := *s.cfg
	child := &session{
		cfg:         &lineCfg,
		app:         s.app,
		interactive: true,
	}

	cmd := newRootCmd(child)
	cmd.SetArgs(args)
	cmd.SetIn(parent.InOrStdin())
	cmd.SetOut(parent.OutOrStdout())
	cmd.SetErr(parent.ErrOrStderr())

	err := cmd.ExecuteContext(parent.Context())
	if err != nil {
		child.output(parent).PrintError(err)
	}

	logger.Debug("shell command",
		slog.String("command", args[0]),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil),
	)
}
