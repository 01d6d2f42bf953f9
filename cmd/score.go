package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/intel-cli/internal/credibility"
	"github.com/sells-group/intel-cli/internal/model"
)

var (
	scoreFile       string
	scoreCompany    string
	scoreCompetitor string
	scoreAll        bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score search results for credibility",
	Long:  "Reads a JSON array of search results from --file or stdin and prints the credible ones, ranked. With --all, rejected results are printed too with their rejection reason.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreCompany == "" {
			return eris.New("--company is required")
		}

		var in io.Reader = cmd.InOrStdin()
		if scoreFile != "" && scoreFile != "-" {
			f, err := os.Open(scoreFile)
			if err != nil {
				return eris.Wrapf(err, "open %s", scoreFile)
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		var results []model.SearchResult
		if err := json.NewDecoder(in).Decode(&results); err != nil {
			return eris.Wrap(err, "decode search results")
		}

		scorer, err := initScorer(cfg)
		if err != nil {
			return err
		}

		subj := credibility.Subject{Company: scoreCompany, Competitor: scoreCompetitor}
		var out []model.ScoredResult
		if scoreAll {
			out = scorer.ScoreAll(results, subj)
		} else {
			out = scorer.Filter(results, subj)
		}
		if out == nil {
			out = []model.ScoredResult{}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "JSON file of search results (default stdin)")
	scoreCmd.Flags().StringVar(&scoreCompany, "company", "", "subject company")
	scoreCmd.Flags().StringVar(&scoreCompetitor, "competitor", "", "competitor named in the search")
	scoreCmd.Flags().BoolVar(&scoreAll, "all", false, "include rejected results")
	rootCmd.AddCommand(scoreCmd)
}
