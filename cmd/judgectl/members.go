package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-judging/internal/projects"
)

var migrateMembersCmd = &cobra.Command{
	Use:   "migrate-members",
	Short: "Link legacy team-member names to student accounts",
	Long: `Reads each project's legacy team_members name list and links every name
that matches exactly one student. Unmatched and ambiguous names are printed
for manual follow-up. Re-running is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dbh, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbh.Close()

		rep, err := projects.MigrateLegacyMembers(ctx, dbh)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	rootCmd.AddCommand(migrateMembersCmd)
}
