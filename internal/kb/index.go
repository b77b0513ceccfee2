package kb

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Embedder maps text to a vector. It is an external capability; any failure
// is recovered by falling back to the lexical retriever.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the vector-index capability consumed by the retriever. Index
// implements it; tests substitute failing doubles to exercise fallbacks.
type Searcher interface {
	Search(ctx context.Context, vec []float32, topK int, threshold float64, filter model.Category) ([]model.RetrievedChunk, error)
}

// snapshot is an immutable view of the indexed corpus. vectors is parallel to
// chunks and nil when the index was built without an embedding capability.
type snapshot struct {
	chunks  []Chunk
	vectors [][]float32
}

// Index holds the searchable corpus. Reads take no locks: the current
// snapshot is published through an atomic pointer and replaced wholesale on
// rebuild, so concurrent readers during an update see either the old or the
// new corpus, never a mix.
type Index struct {
	snap atomic.Pointer[snapshot]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	idx := &Index{}
	idx.snap.Store(&snapshot{})
	return idx
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	return len(x.snap.Load().chunks)
}

// HasVectors reports whether the current snapshot carries embeddings.
func (x *Index) HasVectors() bool {
	return x.snap.Load().vectors != nil
}

// SwapLexical atomically replaces the corpus with a lexical-only snapshot.
func (x *Index) SwapLexical(chunks []Chunk) {
	x.snap.Store(&snapshot{chunks: chunks})
}

// Build embeds every chunk through emb and atomically swaps in the new
// snapshot. If emb is nil or any embedding fails, the index is swapped to a
// lexical-only snapshot instead; Build never leaves the index unusable.
func (x *Index) Build(ctx context.Context, chunks []Chunk, emb Embedder) {
	if emb == nil {
		x.SwapLexical(chunks)
		return
	}

	vectors := make([][]float32, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := emb.Embed(gCtx, chunk.Text)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Warn("kb: embedding corpus failed, building lexical-only index",
			zap.Int("chunks", len(chunks)),
			zap.Error(err),
		)
		x.SwapLexical(chunks)
		return
	}

	x.snap.Store(&snapshot{chunks: chunks, vectors: vectors})
	zap.L().Info("kb: index built",
		zap.Int("chunks", len(chunks)),
		zap.Bool("vectors", true),
	)
}

// Search returns up to topK chunks whose cosine similarity to vec meets
// threshold, highest first, ties broken by document order. A non-empty filter
// restricts candidates to that category. An empty or lexical-only index
// returns no results and no error.
func (x *Index) Search(ctx context.Context, vec []float32, topK int, threshold float64, filter model.Category) ([]model.RetrievedChunk, error) {
	snap := x.snap.Load()
	if len(snap.chunks) == 0 || snap.vectors == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	type hit struct {
		order int
		score float64
	}
	var hits []hit
	for i, chunk := range snap.chunks {
		if filter != "" && chunk.Category != filter {
			continue
		}
		score := cosineSimilarity(vec, snap.vectors[i])
		if score < threshold {
			continue
		}
		hits = append(hits, hit{order: i, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]model.RetrievedChunk, len(hits))
	for rank, h := range hits {
		results[rank] = toRetrieved(snap.chunks[h.order], h.score, rank)
	}
	return results, nil
}

// Chunks returns the current snapshot's chunk list. The returned slice must
// not be mutated.
func (x *Index) Chunks() []Chunk {
	return x.snap.Load().chunks
}

func toRetrieved(c Chunk, score float64, rank int) model.RetrievedChunk {
	return model.RetrievedChunk{
		ID:              c.ID,
		Text:            c.Text,
		SimilarityScore: score,
		Rank:            rank,
		Metadata: model.ChunkMetadata{
			Source:   c.Source,
			Section:  c.Section,
			Category: c.Category,
		},
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors,
// clamped to [0,1]. Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
