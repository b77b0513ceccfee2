package kb

import (
	"math"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Band classifies a result's score relative to the result set.
type Band string

const (
	BandTopMatch  Band = "top match"
	BandAboveMean Band = "above mean"
	BandBelowMean Band = "below mean"
	BandOutlier   Band = "outlier"
)

// Explanation is the diagnostic band assigned to a single result. It never
// affects routing decisions.
type Explanation struct {
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
	Band  Band    `json:"band"`
}

// RankingReport is the diagnostic view over a ranked result set.
type RankingReport struct {
	Explanations []Explanation `json:"explanations"`
	// ReliabilityCutoff is the rank index after which similarity drops by
	// more than one standard deviation or more than 0.2 absolute. -1 when no
	// such drop exists.
	ReliabilityCutoff int `json:"reliability_cutoff"`
}

// ExplainRanking bands each result against the mean and standard deviation of
// the set and locates the reliability cutoff.
func ExplainRanking(results []model.RetrievedChunk) RankingReport {
	report := RankingReport{ReliabilityCutoff: -1}
	if len(results) == 0 {
		return report
	}

	var mean float64
	for _, res := range results {
		mean += res.SimilarityScore
	}
	mean /= float64(len(results))

	var variance float64
	for _, res := range results {
		d := res.SimilarityScore - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(results)))

	report.Explanations = make([]Explanation, len(results))
	for i, res := range results {
		band := BandBelowMean
		switch {
		case i == 0:
			band = BandTopMatch
		case stddev > 0 && res.SimilarityScore < mean-stddev:
			band = BandOutlier
		case res.SimilarityScore >= mean:
			band = BandAboveMean
		}
		report.Explanations[i] = Explanation{
			Rank:  res.Rank,
			Score: res.SimilarityScore,
			Band:  band,
		}
	}

	for i := 0; i < len(results)-1; i++ {
		drop := results[i].SimilarityScore - results[i+1].SimilarityScore
		if drop > 0.2 || (stddev > 0 && drop > stddev) {
			report.ReliabilityCutoff = i
			break
		}
	}
	return report
}
