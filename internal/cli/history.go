package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/services/report"
)

func addFilterFlags(cmd *cobra.Command, filter *report.Filter) {
	cmd.Flags().StringVarP(&filter.Player, "player", "p", "", "Only this player's scores")
	cmd.Flags().StringVarP(&filter.Date, "date", "d", "", "Only scores from this day (YYYY-MM-DD)")
}

func newHistoryCmd(s *session) *cobra.Command {
	var filter report.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}

			groups, err := s.app.Report.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if groups == nil {
				groups = []report.RoundGroup{}
			}

			s.output(cmd).Print(HistoryView{Filter: filter, Rounds: groups})
			return nil
		},
	}

	addFilterFlags(cmd, &filter)

	return cmd
}

func newTotalsCmd(s *session) *cobra.Command {
	var filter report.Filter

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show running totals and whether the ledger balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}

			summary, err := s.app.Report.Summary(cmd.Context(), filter)
			if err != nil {
				return err
			}

			s.output(cmd).Print(summary)
			return nil
		},
	}

	addFilterFlags(cmd, &filter)

	return cmd
}

func newRoundsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "List the stored round records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rounds, err := s.app.Report.PastRounds(cmd.Context())
			if err != nil {
				return err
			}
			if rounds == nil {
				rounds = []*model.Round{}
			}

			s.output(cmd).Print(RoundList{Rounds: rounds})
			return nil
		},
	}
}

func newDealerCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dealer",
		Short: "Show whose turn it is to deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := s.app.Registry.Names(cmd.Context())
			if err != nil {
				return err
			}
			dealer, err := s.app.Dealer.Current(names)
			if err != nil {
				return err
			}

			s.output(cmd).Print(DealerView{Dealer: dealer})
			return nil
		},
	}
}
