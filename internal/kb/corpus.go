// Package kb implements the knowledge-base retrieval core: an atomically
// swappable in-memory index, vector search over an external embedding
// capability, a lexical fallback retriever, hybrid re-scoring, ranking
// diagnostics, and token-budgeted context optimization.
package kb

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Chunk is an indexable unit of knowledge-base text. Chunking itself happens
// upstream in the ingestion pipeline; the corpus files already carry chunks.
type Chunk struct {
	ID       string         `yaml:"id"`
	Text     string         `yaml:"text"`
	Source   string         `yaml:"source"`
	Section  string         `yaml:"section"`
	Category model.Category `yaml:"category"`
}

type corpusFile struct {
	Chunks []Chunk `yaml:"chunks"`
}

// LoadCorpus reads every .yaml/.yml file under dir and returns the combined
// chunk list. Chunks without an ID get one derived from source and position.
func LoadCorpus(dir string) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "kb: read corpus dir %s", dir)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "kb: read corpus file %s", path)
		}

		var file corpusFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, eris.Wrapf(err, "kb: parse corpus file %s", path)
		}

		base := strings.TrimSuffix(entry.Name(), ext)
		for i, c := range file.Chunks {
			if c.ID == "" {
				c.ID = base + "-" + strconv.Itoa(i)
			}
			if c.Source == "" {
				c.Source = entry.Name()
			}
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}
