package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once at
// startup and passed by reference through the call chain.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	KB        KBConfig        `yaml:"kb" mapstructure:"kb"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Evaluator EvaluatorConfig `yaml:"evaluator" mapstructure:"evaluator"`
	Feedback  FeedbackConfig  `yaml:"feedback" mapstructure:"feedback"`
	Compose   ComposeConfig   `yaml:"compose" mapstructure:"compose"`
	Bench     BenchConfig     `yaml:"bench" mapstructure:"bench"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for classification and answer
// generation.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMin float64 `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// Timeout returns the per-call timeout as a duration.
func (c AnthropicConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// KBConfig configures the knowledge-base corpus.
type KBConfig struct {
	CorpusPath string `yaml:"corpus_path" mapstructure:"corpus_path"`
}

// RetrievalConfig configures the retriever, ranker, and context optimizer.
type RetrievalConfig struct {
	TopK                  int     `yaml:"top_k" mapstructure:"top_k"`
	ScoreThreshold        float64 `yaml:"score_threshold" mapstructure:"score_threshold"`
	KBConfidenceThreshold float64 `yaml:"kb_confidence_threshold" mapstructure:"kb_confidence_threshold"`
	MaxRetrievalAttempts  int     `yaml:"max_retrieval_attempts" mapstructure:"max_retrieval_attempts"`
	HybridBoost           bool    `yaml:"hybrid_boost" mapstructure:"hybrid_boost"`
	ContextTokenBudget    int     `yaml:"context_token_budget" mapstructure:"context_token_budget"`
	MergeStrategy         string  `yaml:"merge_strategy" mapstructure:"merge_strategy"`
}

// EvaluatorConfig configures the confidence/escalation decision.
type EvaluatorConfig struct {
	// ConfidenceBaselineDivisor caps the priority-derived baseline at
	// 100/divisor (0.83 with the default 120). The ceiling is preserved from
	// the historical formula; override here if it should reach higher.
	ConfidenceBaselineDivisor float64 `yaml:"confidence_baseline_divisor" mapstructure:"confidence_baseline_divisor"`
	EscalationThreshold       float64 `yaml:"escalation_threshold" mapstructure:"escalation_threshold"`
	SnippetBonus              float64 `yaml:"snippet_bonus" mapstructure:"snippet_bonus"`
	NegativeTonePenalty       float64 `yaml:"negative_tone_penalty" mapstructure:"negative_tone_penalty"`
}

// FeedbackConfig configures the client-feedback retry loop.
type FeedbackConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ComposeConfig configures response composition.
type ComposeConfig struct {
	TeamName string `yaml:"team_name" mapstructure:"team_name"`
}

// BenchConfig configures the batch evaluation run.
type BenchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port             int `yaml:"port" mapstructure:"port"`
	PollIntervalMS   int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollMaxAttempts  int `yaml:"poll_max_attempts" mapstructure:"poll_max_attempts"`
	ShutdownTimeoutS int `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOXA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "doxa.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.poll_interval_ms", 500)
	v.SetDefault("server.poll_max_attempts", 60)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("anthropic.requests_per_min", 60)
	v.SetDefault("kb.corpus_path", "kb")
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.score_threshold", 0.40)
	v.SetDefault("retrieval.kb_confidence_threshold", 0.70)
	v.SetDefault("retrieval.max_retrieval_attempts", 2)
	v.SetDefault("retrieval.hybrid_boost", true)
	v.SetDefault("retrieval.context_token_budget", 2000)
	v.SetDefault("retrieval.merge_strategy", "structured")
	v.SetDefault("evaluator.confidence_baseline_divisor", 120)
	v.SetDefault("evaluator.escalation_threshold", 0.6)
	v.SetDefault("evaluator.snippet_bonus", 0.2)
	v.SetDefault("evaluator.negative_tone_penalty", 0.15)
	v.SetDefault("feedback.max_attempts", 2)
	v.SetDefault("compose.team_name", "DOXA")
	v.SetDefault("bench.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
