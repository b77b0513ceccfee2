package kb

import (
	"fmt"
	"strings"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Token accounting uses a flat ~4 characters/token estimate; the budget is a
// soft guard against prompt overflow, not an exact tokenizer.
const charsPerToken = 4

// MergeStrategy selects how selected chunks are merged into one context text.
type MergeStrategy string

const (
	// MergeConcat joins chunk texts with blank lines.
	MergeConcat MergeStrategy = "concat"
	// MergeImportance keeps the top 3 chunks verbatim and references the
	// rest by id.
	MergeImportance MergeStrategy = "importance"
	// MergeStructured tags each block with id, relevance, and category. It
	// is the default for downstream prompt construction.
	MergeStructured MergeStrategy = "structured"
)

// ParseMergeStrategy maps a config string to a strategy, defaulting to
// structured.
func ParseMergeStrategy(s string) MergeStrategy {
	switch MergeStrategy(s) {
	case MergeConcat, MergeImportance, MergeStructured:
		return MergeStrategy(s)
	default:
		return MergeStructured
	}
}

// SelectedDocument is a chunk admitted into the optimized context.
type SelectedDocument struct {
	Chunk     model.RetrievedChunk `json:"chunk"`
	Truncated bool                 `json:"truncated"`
}

// OptimizedContext is the token-budgeted evidence package handed to answer
// generation.
type OptimizedContext struct {
	Selected      []SelectedDocument `json:"selected_documents"`
	Text          string             `json:"merged_context_text"`
	TokenEstimate int                `json:"token_estimate"`
	// Efficiency is used/available budget, in [0,1].
	Efficiency float64 `json:"efficiency"`
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// OptimizeContext selects a token-budgeted subset of the ranked results,
// greedily in rank order. A candidate that would overflow the budget is
// truncated at the last sentence boundary that fits, marked truncated, and
// selection stops.
func OptimizeContext(results []model.RetrievedChunk, query string, budget int, strategy MergeStrategy) OptimizedContext {
	if budget <= 0 {
		budget = 2000
	}

	out := OptimizedContext{}
	remaining := budget
	for _, res := range results {
		need := EstimateTokens(res.Text)
		if need <= remaining {
			out.Selected = append(out.Selected, SelectedDocument{Chunk: res})
			remaining -= need
			continue
		}

		truncated := truncateAtSentence(res.Text, remaining*charsPerToken)
		if truncated != "" {
			res.Text = truncated
			out.Selected = append(out.Selected, SelectedDocument{Chunk: res, Truncated: true})
			remaining -= EstimateTokens(truncated)
		}
		break
	}

	out.Text = merge(out.Selected, query, strategy)
	out.TokenEstimate = budget - remaining
	out.Efficiency = float64(out.TokenEstimate) / float64(budget)
	return out
}

// truncateAtSentence cuts text at the last sentence boundary within maxChars.
// Returns "" when not even one sentence fits.
func truncateAtSentence(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if len(text) <= maxChars {
		return text
	}

	window := text[:maxChars]
	cut := -1
	for _, sep := range []string{". ", "! ", "? ", ".\n", "\n"} {
		if idx := strings.LastIndex(window, sep); idx > cut {
			cut = idx + len(sep) - 1
		}
	}
	if cut <= 0 {
		return ""
	}
	return strings.TrimRight(window[:cut+1], " \n")
}

func merge(selected []SelectedDocument, query string, strategy MergeStrategy) string {
	if len(selected) == 0 {
		return ""
	}

	var b strings.Builder
	switch strategy {
	case MergeConcat:
		for i, sel := range selected {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(sel.Chunk.Text)
		}

	case MergeImportance:
		var referenced []string
		for i, sel := range selected {
			if i < 3 {
				if i > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(sel.Chunk.Text)
				continue
			}
			referenced = append(referenced, sel.Chunk.ID)
		}
		if len(referenced) > 0 {
			b.WriteString("\n\nVoir aussi: ")
			b.WriteString(strings.Join(referenced, ", "))
		}

	default: // MergeStructured
		fmt.Fprintf(&b, "Question: %s\n", query)
		for _, sel := range selected {
			fmt.Fprintf(&b, "\n[doc id=%s relevance=%.2f category=%s]\n%s\n[/doc]\n",
				sel.Chunk.ID, sel.Chunk.SimilarityScore, sel.Chunk.Metadata.Category, sel.Chunk.Text)
		}
	}
	return b.String()
}
