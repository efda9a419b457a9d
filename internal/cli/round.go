package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardtally/internal/services/ledger"
	"github.com/mcoot/cardtally/internal/services/report"
)

func newRoundCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Round entry commands",
	}

	cmd.AddCommand(newRoundSubmitCmd(s))
	cmd.AddCommand(newRoundUndoCmd(s))
	cmd.AddCommand(newRoundResetCmd(s))

	return cmd
}

// parseScoreArgs turns NAME=SCORE arguments into one input per registered
// player. Registered players that are not mentioned score 0. Names that are
// not registered are passed through and dropped by the ledger.
func parseScoreArgs(registered []string, args []string) ([]ledger.ScoreInput, error) {
	scores := make(map[string]string, len(args))
	var extra []string

	for _, arg := range args {
		name, score, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid score %q: expected NAME=SCORE", arg)
		}
		name = strings.TrimSpace(name)
		if _, seen := scores[name]; !seen {
			extra = append(extra, name)
		}
		scores[name] = score
	}

	inputs := make([]ledger.ScoreInput, 0, len(registered)+len(extra))
	known := make(map[string]bool, len(registered))
	for _, name := range registered {
		known[name] = true
		score, ok := scores[name]
		if !ok {
			score = "0"
		}
		inputs = append(inputs, ledger.ScoreInput{Player: name, Score: score})
	}
	for _, name := range extra {
		if !known[name] {
			inputs = append(inputs, ledger.ScoreInput{Player: name, Score: scores[name]})
		}
	}
	return inputs, nil
}

func newRoundSubmitCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "submit NAME=SCORE...",
		Short: "Record one round of scores",
		Long: `Record one round of scores. Registered players that are not listed
score 0. Unknown players and scores that are not whole numbers are skipped.

Example:
  cardtally round submit Alice=10 Bob=-5 Carol=-5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			names, err := s.app.Registry.Names(ctx)
			if err != nil {
				return err
			}
			inputs, err := parseScoreArgs(names, args)
			if err != nil {
				return err
			}

			result, err := s.app.Ledger.SubmitRound(ctx, inputs)
			if err != nil {
				return err
			}

			summary, err := s.app.Report.Summary(ctx, report.Filter{})
			if err != nil {
				return err
			}

			view := SubmitView{
				Round:          result.Round,
				Sum:            result.Sum,
				Balanced:       result.Balanced,
				Totals:         summary.Overall.ByPlayer,
				LedgerBalanced: summary.Balanced,
			}

			// The deal only moves on within one sitting
			if s.interactive && result.Round != nil {
				next, err := s.app.Dealer.Next(names)
				if err == nil {
					view.NextDealer = next
				}
			}

			s.output(cmd).Print(view)
			return nil
		},
	}
}

func newRoundUndoCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last round submitted in this session",
		Long: `Undo the last round submitted in this session. Only the most recent
submission can be undone, and a reset cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			undone, err := s.app.Ledger.UndoLastAction(ctx)
			if err != nil {
				return err
			}
			if undone && s.interactive {
				s.rewindDealer(ctx)
			}

			summary, err := s.app.Report.Summary(ctx, report.Filter{})
			if err != nil {
				return err
			}

			s.output(cmd).Print(UndoResult{Undone: undone, Balanced: summary.Balanced})
			return nil
		},
	}
}

// rewindDealer steps the rotation back so an undone round is dealt again by
// the same player
func (s *session) rewindDealer(ctx context.Context) {
	names, err := s.app.Registry.Names(ctx)
	if err != nil {
		return
	}
	_, _ = s.app.Dealer.Previous(names)
}

func newRoundResetCmd(s *session) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every recorded score",
		Long: `Delete every recorded score and round, keeping the registered players.
This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every score and cannot be undone; rerun with --yes")
			}

			if err := s.app.Ledger.ResetGame(cmd.Context()); err != nil {
				return err
			}

			s.output(cmd).PrintMessage("Game reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")

	return cmd
}
