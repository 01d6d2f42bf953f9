package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/intel-cli/internal/query"
)

var (
	queriesCompetitor string
	queriesLeadership bool
)

var queriesCmd = &cobra.Command{
	Use:   "queries <company>",
	Short: "Print the search queries generated for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen := query.NewGenerator(query.Config{PressWires: cfg.Query.PressWires, Verbs: cfg.Query.Verbs})

		var qs []string
		if queriesLeadership {
			qs = gen.Leadership(args[0])
		} else {
			qs = gen.Generate(args[0], queriesCompetitor)
		}
		for _, q := range qs {
			fmt.Fprintln(cmd.OutOrStdout(), q)
		}
		return nil
	},
}

func init() {
	queriesCmd.Flags().StringVar(&queriesCompetitor, "competitor", "", "competitor to include in queries")
	queriesCmd.Flags().BoolVar(&queriesLeadership, "leadership", false, "print leadership-change queries instead")
	rootCmd.AddCommand(queriesCmd)
}
