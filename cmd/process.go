package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

var processFlags struct {
	clientName  string
	clientEmail string
	subject     string
	description string
	keywords    []string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Triage a single ticket and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		ticket := &model.Ticket{
			ClientName:  processFlags.clientName,
			ClientEmail: processFlags.clientEmail,
			Subject:     processFlags.subject,
			Description: processFlags.description,
			Keywords:    processFlags.keywords,
		}

		result, err := env.Pipeline.Intake(cmd.Context(), ticket)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().StringVar(&processFlags.clientName, "name", "", "client name")
	processCmd.Flags().StringVar(&processFlags.clientEmail, "email", "", "client email")
	processCmd.Flags().StringVar(&processFlags.subject, "subject", "", "ticket subject")
	processCmd.Flags().StringVar(&processFlags.description, "description", "", "ticket description")
	processCmd.Flags().StringSliceVar(&processFlags.keywords, "keywords", nil, "keywords for hybrid retrieval boosting")
	_ = processCmd.MarkFlagRequired("subject")
	_ = processCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(processCmd)
}
