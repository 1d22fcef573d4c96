package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/report"
)

var (
	exportConference string
	exportFormat     string
	exportOut        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ranked conference report as CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := report.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		dbh, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbh.Close()

		b := &report.Builder{
			Criteria:    criteria.NewSQLStore(dbh),
			Projects:    projects.NewSQLStore(dbh),
			Evals:       evaluation.NewSQLStore(dbh),
			Concurrency: cfg.ReportConcurrency,
		}
		rep, err := b.Build(ctx, exportConference)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			fh, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			if err := report.Export(fh, f, rep); err != nil {
				return errors.Join(err, fh.Close())
			}
			return fh.Close()
		}
		return report.Export(w, f, rep)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportConference, "conference", "", "conference id")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or json")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("conference")
	rootCmd.AddCommand(exportCmd)
}
