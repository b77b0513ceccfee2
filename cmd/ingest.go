package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
)

var ingestPath string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Validate and inspect a knowledge-base corpus directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ingestPath
		if path == "" {
			path = cfg.KB.CorpusPath
		}

		chunks, err := kb.LoadCorpus(path)
		if err != nil {
			return err
		}

		sections := map[string]int{}
		for _, c := range chunks {
			sections[string(c.Category)]++
		}

		zap.L().Info("corpus loaded",
			zap.String("path", path),
			zap.Int("chunks", len(chunks)),
			zap.Any("by_category", sections),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPath, "path", "", "corpus directory (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
