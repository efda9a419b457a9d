package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardtally/internal/services/export"
	"github.com/mcoot/cardtally/internal/services/report"
)

func newExportCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to a file",
	}

	cmd.AddCommand(newExportXLSXCmd(s))
	cmd.AddCommand(newExportChartCmd(s))

	return cmd
}

func newExportXLSXCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "xlsx FILE",
		Short: "Write the round history and totals as a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			groups, err := s.app.Report.History(ctx, report.Filter{})
			if err != nil {
				return err
			}
			summary, err := s.app.Report.Summary(ctx, report.Filter{})
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteHistoryXLSX(&buf, groups, summary.Overall); err != nil {
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}

			s.output(cmd).Print(ExportResult{Kind: "xlsx", Path: args[0]})
			return nil
		},
	}
}

func newExportChartCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "chart FILE",
		Short: "Render running totals per player as a PNG chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			groups, err := s.app.Report.History(ctx, report.Filter{})
			if err != nil {
				return err
			}
			names, err := s.app.Registry.Names(ctx)
			if err != nil {
				return err
			}

			png, err := export.RunningTotalsChart(groups, names)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], png, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}

			s.output(cmd).Print(ExportResult{Kind: "chart", Path: args[0]})
			return nil
		},
	}
}
