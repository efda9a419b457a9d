package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newPlayerCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerAddCmd(s))
	cmd.AddCommand(newPlayerListCmd(s))

	return cmd
}

func newPlayerAddCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Register one or more players",
		Long: `Register players by name. Blank names and names that are already
registered are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			result := AddPlayersResult{Added: []string{}, Skipped: []string{}}

			for _, name := range args {
				added, err := s.app.Registry.Register(ctx, name)
				if err != nil {
					return err
				}
				if added {
					result.Added = append(result.Added, strings.TrimSpace(name))
				} else {
					result.Skipped = append(result.Skipped, name)
				}
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			players, err := s.app.Registry.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			s.output(cmd).Print(PlayerList{Players: players})
			return nil
		},
	}
}
