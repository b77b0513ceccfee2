package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/bench"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/triage"
)

var benchFlags struct {
	input  string
	output string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Answer a batch question file for offline evaluation",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := bench.LoadInput(benchFlags.input)
		if err != nil {
			return err
		}

		composer := triage.NewComposer(env.Client, cfg.Anthropic)

		// Each question runs the retrieval and composition stages against a
		// synthetic ticket; triage state and persistence stay out of the loop.
		answerer := bench.AnswerFunc(func(ctx context.Context, query string) (string, error) {
			chunks, _ := env.Retriever.Retrieve(ctx, query, kb.Options{Attempt: 1})
			optimized := kb.OptimizeContext(chunks, query,
				cfg.Retrieval.ContextTokenBudget,
				kb.ParseMergeStrategy(cfg.Retrieval.MergeStrategy))

			var topChunk string
			if len(optimized.Selected) > 0 {
				topChunk = optimized.Selected[0].Chunk.Text
			}
			ticket := &model.Ticket{Subject: query, Description: query}
			return composer.Compose(ctx, ticket, optimized.Text, topChunk, 1.0), nil
		})

		out := bench.Run(cmd.Context(), in, answerer, cfg.Compose.TeamName, cfg.Bench.Concurrency)
		if err := bench.WriteOutput(benchFlags.output, out); err != nil {
			return err
		}

		zap.L().Info("bench complete",
			zap.Int("questions", len(in.Questions)),
			zap.String("output", benchFlags.output),
		)
		return nil
	},
}

func init() {
	benchCmd.Flags().StringVar(&benchFlags.input, "input", "questions.json", "question file")
	benchCmd.Flags().StringVar(&benchFlags.output, "output", "answers.json", "answer file")
	rootCmd.AddCommand(benchCmd)
}
