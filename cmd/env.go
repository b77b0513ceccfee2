package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/triage"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/pkg/llm"
)

// triageEnv holds the initialized store, index, and pipeline shared by the
// serve/process/bench commands.
type triageEnv struct {
	Store     store.Store
	Index     *kb.Index
	Retriever *kb.Retriever
	Client    llm.Client // nil without an API key
	Pipeline  *triage.Pipeline
	Escalator *triage.Escalator
}

// Close releases resources held by the environment.
func (te *triageEnv) Close() {
	if te.Store != nil {
		_ = te.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store, loads the knowledge base, and builds the
// pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context) (*triageEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	index := kb.NewIndex()
	chunks, err := kb.LoadCorpus(cfg.KB.CorpusPath)
	if err != nil {
		zap.L().Warn("knowledge base corpus unavailable, starting with empty index",
			zap.String("path", cfg.KB.CorpusPath), zap.Error(err))
	} else {
		index.SwapLexical(chunks)
		zap.L().Info("knowledge base loaded", zap.Int("chunks", len(chunks)))
	}

	var client llm.Client
	if cfg.Anthropic.Key != "" {
		client = llm.NewClient(cfg.Anthropic.Key,
			llm.WithTimeout(cfg.Anthropic.Timeout()),
			llm.WithRateLimit(cfg.Anthropic.RequestsPerMin),
		)
	} else {
		zap.L().Warn("DOXA_ANTHROPIC_KEY not set, classification and answers use the heuristic path")
	}

	retriever := kb.NewRetriever(index, nil, cfg.Retrieval)

	return &triageEnv{
		Store:     st,
		Index:     index,
		Retriever: retriever,
		Client:    client,
		Pipeline:  triage.New(cfg, st, client, retriever, nil),
		Escalator: triage.NewEscalator(st, nil),
	}, nil
}
