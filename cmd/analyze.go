package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/intel-cli/internal/model"
)

var (
	analyzeCompetitor string
	analyzeRefresh    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company>",
	Short: "Build an intelligence report for a company",
	Long:  "Searches for the company, keeps only credible results, extracts leadership changes and prints the report as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := initReports(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Reports.Analyze(ctx, model.AnalyzeRequest{
			Company:    args[0],
			Competitor: analyzeCompetitor,
			Refresh:    analyzeRefresh,
		})
		if err != nil {
			return eris.Wrapf(err, "analyze %s", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCompetitor, "competitor", "", "competitor to compare against")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "ignore any cached report")
	rootCmd.AddCommand(analyzeCmd)
}
