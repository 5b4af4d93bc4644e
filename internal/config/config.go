package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// Static bearer token protecting the HTTP API. Empty disables auth
	// (local single-user deployments).
	APIToken string `envconfig:"API_TOKEN"`

	// Embedding backends. Backend may be openai, ollama, local or empty
	// for auto-detection in that priority order.
	EmbeddingBackend string `envconfig:"EMBEDDING_BACKEND"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel      string `envconfig:"OPENAI_EMBEDDING_MODEL"`
	OllamaURL        string `envconfig:"OLLAMA_URL"`
	OllamaModel      string `envconfig:"OLLAMA_MODEL" default:"nomic-embed-text"`
	LocalModel       string `envconfig:"LOCAL_MODEL" default:"BAAI/bge-small-en-v1.5"`
	LocalCacheDir    string `envconfig:"LOCAL_CACHE_DIR"`
	LocalInitTimeout int    `envconfig:"LOCAL_INIT_TIMEOUT_SECONDS" default:"120"`

	// Wiki content source (optional).
	WikiBaseURL string `envconfig:"WIKI_BASE_URL"`
	WikiToken   string `envconfig:"WIKI_TOKEN"`

	// Optional S3 archival of original uploaded files.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"loreline-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Retrieval tuning.
	SearchTopK       int     `envconfig:"SEARCH_TOP_K" default:"5"`
	SearchThreshold  float64 `envconfig:"SEARCH_THRESHOLD" default:"0.3"`
	DedupThreshold   float64 `envconfig:"DEDUP_THRESHOLD" default:"0.95"`
	MaxContextLength int     `envconfig:"MAX_CONTEXT_LENGTH" default:"4000"`
	ContextPrefix    string  `envconfig:"CONTEXT_PREFIX" default:"Relevant context from the knowledge base:\n\n"`
	ContextSuffix    string  `envconfig:"CONTEXT_SUFFIX" default:"\n\nUse the context above when it is relevant to the user's question."`

	// Incremental sync. StalePolicy decides what to do when a candidate
	// page or a stored document lacks a last-modified timestamp:
	// "skip" (default, avoids re-embedding) or "reingest".
	SyncStalePolicy     string `envconfig:"SYNC_STALE_POLICY" default:"skip"`
	SyncCollections     string `envconfig:"SYNC_COLLECTIONS"`
	SyncIntervalMinutes int    `envconfig:"SYNC_INTERVAL_MINUTES" default:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LORELINE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.SyncStalePolicy != "skip" && cfg.SyncStalePolicy != "reingest" {
		return nil, fmt.Errorf("invalid LORELINE_SYNC_STALE_POLICY %q (expected skip or reingest)", cfg.SyncStalePolicy)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasOllama() bool {
	return c.OllamaURL != ""
}

func (c *Config) HasWiki() bool {
	return c.WikiBaseURL != ""
}

// SyncCollectionKeys returns the configured collection keys for the
// background sync worker.
func (c *Config) SyncCollectionKeys() []string {
	if strings.TrimSpace(c.SyncCollections) == "" {
		return nil
	}
	parts := strings.Split(c.SyncCollections, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if key := strings.TrimSpace(p); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
