package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/probitylab/screener/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SCREENER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (when bound by the command)
//  2. Environment variables (SCREENER_API_LISTEN, SCREENER_EMBEDDING_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SCREENER_API_LISTEN, SCREENER_VECTOR_STORE_PROVIDER, etc.
	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from a viper instance, applying defaults
// for anything unset.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetInt("embedding.dimensions"),
			MaxRetries: v.GetInt("embedding.max_retries"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			DataDir:    v.GetString("vector_store.data_dir"),
			SQLitePath: v.GetString("vector_store.sqlite_path"),
		},
		// GetFloat64 resolves an explicit zero in the file or environment
		// ahead of the registered default, so the pointer always carries
		// the effective value.
		Decision: DecisionConfig{
			SimilarityThreshold: f64(v.GetFloat64("decision.similarity_threshold")),
			RatingWeight:        f64(v.GetFloat64("decision.rating_weight")),
			DecisionThreshold:   f64(v.GetFloat64("decision.decision_threshold")),
		},
		Audit: AuditConfig{
			Brokers: v.GetStringSlice("audit.brokers"),
			Topic:   v.GetString("audit.topic"),
		},
	}

	applyDefaults(cfg)
	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.max_retries", d.Embedding.MaxRetries)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.data_dir", d.VectorStore.DataDir)
	v.SetDefault("vector_store.sqlite_path", d.VectorStore.SQLitePath)

	// Decision
	v.SetDefault("decision.similarity_threshold", *d.Decision.SimilarityThreshold)
	v.SetDefault("decision.rating_weight", *d.Decision.RatingWeight)
	v.SetDefault("decision.decision_threshold", *d.Decision.DecisionThreshold)

	// Audit
	v.SetDefault("audit.brokers", d.Audit.Brokers)
	v.SetDefault("audit.topic", d.Audit.Topic)
}
