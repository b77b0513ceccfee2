package model

import "time"

// RetrievedChunk is a scored unit of knowledge-base evidence.
type RetrievedChunk struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	SimilarityScore float64 `json:"similarity_score"`
	// Rank is 0-indexed; ties are broken by document insertion order.
	Rank     int           `json:"rank"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries provenance for a retrieved chunk.
type ChunkMetadata struct {
	Source   string   `json:"source"`
	Section  string   `json:"section,omitempty"`
	Category Category `json:"category,omitempty"`
}

// RetrievalMetadata aggregates similarity statistics over a result set. Its
// KBConfident and KBLimitReached booleans are the contract boundary between
// retrieval and the evaluator.
type RetrievalMetadata struct {
	MeanSimilarity float64       `json:"mean_similarity"`
	MaxSimilarity  float64       `json:"max_similarity"`
	MinSimilarity  float64       `json:"min_similarity"`
	ChunkCount     int           `json:"chunk_count"`
	KBConfident    bool          `json:"kb_confident"`
	KBLimitReached bool          `json:"kb_limit_reached"`
	Latency        time.Duration `json:"latency"`
}
