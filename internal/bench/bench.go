// Package bench runs the batch evaluation harness: a file of questions in,
// a file of answers out. The wire format is fixed by the shared test
// fixtures, key casing included.
package bench

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Question is a single evaluation query.
type Question struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// Input matches the harness input file: {"Questions": [...]}.
type Input struct {
	Questions []Question `json:"Questions"`
}

// Answer pairs a question id with the produced answer text.
type Answer struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// Output matches the harness output file: {"Team": ..., "Answers": [...]}.
type Output struct {
	Team    string   `json:"Team"`
	Answers []Answer `json:"Answers"`
}

// Answerer produces an answer for one free-text query.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// AnswerFunc adapts a function to the Answerer interface.
type AnswerFunc func(ctx context.Context, query string) (string, error)

// Answer calls f.
func (f AnswerFunc) Answer(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// LoadInput reads and decodes the question file.
func LoadInput(path string) (*Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "bench: read %s", path)
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, eris.Wrapf(err, "bench: decode %s", path)
	}
	return &in, nil
}

// WriteOutput encodes the answer file.
func WriteOutput(path string, out *Output) error {
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "bench: encode output")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "bench: write %s", path)
	}
	return nil
}

// Run answers every question with bounded concurrency. A failed question
// yields an empty answer rather than failing the batch; answers come back
// in input order.
func Run(ctx context.Context, in *Input, answerer Answerer, team string, concurrency int) *Output {
	if concurrency <= 0 {
		concurrency = 4
	}

	answers := make([]Answer, len(in.Questions))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range in.Questions {
		g.Go(func() error {
			text, err := answerer.Answer(gCtx, q.Query)
			if err != nil {
				zap.L().Warn("bench: question failed",
					zap.String("id", q.ID), zap.Error(err))
				text = ""
			}
			answers[i] = Answer{ID: q.ID, Answer: text}
			return nil
		})
	}
	_ = g.Wait()

	return &Output{Team: team, Answers: answers}
}
