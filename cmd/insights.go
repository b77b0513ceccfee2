package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/insight"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Analyze escalation records for knowledge-base gaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListEscalations(cmd.Context())
		if err != nil {
			return err
		}

		report := insight.Analyze(recs)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
