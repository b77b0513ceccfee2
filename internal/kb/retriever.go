package kb

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Hybrid boost bounds applied on top of a candidate's similarity score.
const (
	hybridBoostPerKeyword = 0.15
	hybridBoostCap        = 0.3
)

// Retriever turns a free-text query into ranked, scored evidence. Embedding
// and vector search are external capabilities; every failure path degrades to
// the lexical retriever rather than surfacing an error.
type Retriever struct {
	index    *Index
	embedder Embedder
	searcher Searcher
	cfg      config.RetrievalConfig
}

// NewRetriever creates a retriever over the given index. embedder may be nil
// for lexical-only deployments.
func NewRetriever(index *Index, embedder Embedder, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		index:    index,
		embedder: embedder,
		searcher: index,
		cfg:      cfg,
	}
}

// WithSearcher substitutes the vector-search capability. Used by tests to
// exercise capability-failure fallbacks.
func (r *Retriever) WithSearcher(s Searcher) *Retriever {
	r.searcher = s
	return r
}

// Options tunes a single retrieval invocation.
type Options struct {
	// Category restricts vector-search candidates when non-empty.
	Category model.Category
	// Keywords drive the optional hybrid boost pass.
	Keywords []string
	// Attempt is the 1-based retrieval attempt for this ticket, compared
	// against max_retrieval_attempts for the kb_limit_reached signal.
	Attempt int
}

// Retrieve runs the full retrieval path: embed, vector search, lexical
// fallback, hybrid boost, and confidence aggregation. It never returns an
// error; an empty or unavailable index yields no results and
// kb_confident=false.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]model.RetrievedChunk, model.RetrievalMetadata) {
	start := time.Now()

	results := r.search(ctx, query, opts)

	if r.cfg.HybridBoost && len(opts.Keywords) > 0 {
		results = BoostByKeywords(results, opts.Keywords)
	}

	meta := r.aggregate(results, opts.Attempt, time.Since(start))
	report := ExplainRanking(results)

	zap.L().Debug("kb: retrieval complete",
		zap.Int("results", len(results)),
		zap.Float64("mean_similarity", meta.MeanSimilarity),
		zap.Bool("kb_confident", meta.KBConfident),
		zap.Int("reliability_cutoff", report.ReliabilityCutoff),
		zap.Duration("latency", meta.Latency),
	)
	return results, meta
}

func (r *Retriever) search(ctx context.Context, query string, opts Options) []model.RetrievedChunk {
	if r.embedder == nil || !r.index.HasVectors() {
		return LexicalSearch(r.index.Chunks(), query, r.cfg.TopK)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		zap.L().Warn("kb: query embedding failed, using lexical fallback", zap.Error(err))
		return LexicalSearch(r.index.Chunks(), query, r.cfg.TopK)
	}

	results, err := r.searcher.Search(ctx, vec, r.cfg.TopK, r.cfg.ScoreThreshold, opts.Category)
	if err != nil {
		zap.L().Warn("kb: vector search failed, using lexical fallback", zap.Error(err))
		return LexicalSearch(r.index.Chunks(), query, r.cfg.TopK)
	}
	return results
}

// BoostByKeywords re-scores candidates with a bounded keyword-match bonus and
// re-sorts. Ranks are reassigned after the sort.
func BoostByKeywords(results []model.RetrievedChunk, keywords []string) []model.RetrievedChunk {
	if len(results) == 0 || len(keywords) == 0 {
		return results
	}

	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = Normalize(kw); kw != "" {
			normalized = append(normalized, kw)
		}
	}

	boosted := make([]model.RetrievedChunk, len(results))
	copy(boosted, results)
	for i := range boosted {
		text := Normalize(boosted[i].Text)
		tokens := make(map[string]struct{})
		for _, tok := range tokenPattern.FindAllString(text, -1) {
			tokens[tok] = struct{}{}
		}

		var boost float64
		for _, kw := range normalized {
			if _, ok := tokens[kw]; ok {
				boost += hybridBoostPerKeyword
			}
		}
		if boost > hybridBoostCap {
			boost = hybridBoostCap
		}
		boosted[i].SimilarityScore += boost
		if boosted[i].SimilarityScore > 1 {
			boosted[i].SimilarityScore = 1
		}
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].SimilarityScore > boosted[j].SimilarityScore
	})
	for rank := range boosted {
		boosted[rank].Rank = rank
	}
	return boosted
}

// aggregate derives the similarity statistics and the two booleans the
// evaluator consumes.
func (r *Retriever) aggregate(results []model.RetrievedChunk, attempt int, latency time.Duration) model.RetrievalMetadata {
	meta := model.RetrievalMetadata{
		ChunkCount:     len(results),
		KBLimitReached: attempt >= r.cfg.MaxRetrievalAttempts,
		Latency:        latency,
	}
	if len(results) == 0 {
		return meta
	}

	meta.MinSimilarity = results[0].SimilarityScore
	for _, res := range results {
		meta.MeanSimilarity += res.SimilarityScore
		if res.SimilarityScore > meta.MaxSimilarity {
			meta.MaxSimilarity = res.SimilarityScore
		}
		if res.SimilarityScore < meta.MinSimilarity {
			meta.MinSimilarity = res.SimilarityScore
		}
	}
	meta.MeanSimilarity /= float64(len(results))
	meta.KBConfident = meta.MeanSimilarity >= r.cfg.KBConfidenceThreshold
	return meta
}
