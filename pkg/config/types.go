package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent screener configuration stored as
// config.toml in the .screener/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Decision    DecisionConfig    `toml:"decision"`
	Audit       AuditConfig       `toml:"audit"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions int    `toml:"dimensions,omitempty"`
	MaxRetries int    `toml:"max_retries,omitempty"`
}

// VectorStoreConfig holds corpus index settings. DataDir is where the flat
// index persists its artifacts; SQLitePath backs the sqlite-vec provider.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	DataDir    string `toml:"data_dir,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// DecisionConfig holds the three scoring parameters. All are externally
// configurable without code changes. The fields are pointers so an
// explicit zero in the file survives the defaulting pass: a zero rating
// weight and a zero decision threshold are both valid settings.
type DecisionConfig struct {
	SimilarityThreshold *float64 `toml:"similarity_threshold,omitempty"`
	RatingWeight        *float64 `toml:"rating_weight,omitempty"`
	DecisionThreshold   *float64 `toml:"decision_threshold,omitempty"`
}

// AuditConfig holds decision-event sink settings. With no brokers the
// events go to the log only.
type AuditConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.Itoa(c.Embedding.Dimensions)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = n
			return nil
		},
	},
	"embedding.max_retries": {
		get: func(c *Config) string {
			if c.Embedding.MaxRetries == 0 {
				return ""
			}
			return strconv.Itoa(c.Embedding.MaxRetries)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.max_retries: %w", err)
			}
			c.Embedding.MaxRetries = n
			return nil
		},
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.data_dir": {
		get: func(c *Config) string { return c.VectorStore.DataDir },
		set: func(c *Config, v string) error { c.VectorStore.DataDir = v; return nil },
	},
	"vector_store.sqlite_path": {
		get: func(c *Config) string { return c.VectorStore.SQLitePath },
		set: func(c *Config, v string) error { c.VectorStore.SQLitePath = v; return nil },
	},
	"decision.similarity_threshold": {
		get: func(c *Config) string { return formatFloat(c.Decision.SimilarityThreshold) },
		set: func(c *Config, v string) error {
			return setFloat(&c.Decision.SimilarityThreshold, "decision.similarity_threshold", v)
		},
	},
	"decision.rating_weight": {
		get: func(c *Config) string { return formatFloat(c.Decision.RatingWeight) },
		set: func(c *Config, v string) error {
			return setFloat(&c.Decision.RatingWeight, "decision.rating_weight", v)
		},
	},
	"decision.decision_threshold": {
		get: func(c *Config) string { return formatFloat(c.Decision.DecisionThreshold) },
		set: func(c *Config, v string) error {
			return setFloat(&c.Decision.DecisionThreshold, "decision.decision_threshold", v)
		},
	},
	"audit.brokers": {
		get: func(c *Config) string { return strings.Join(c.Audit.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Audit.Brokers = splitBrokers(v)
			return nil
		},
	},
	"audit.topic": {
		get: func(c *Config) string { return c.Audit.Topic },
		set: func(c *Config, v string) error { c.Audit.Topic = v; return nil },
	},
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func setFloat(target **float64, key, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = &f
	return nil
}

func splitBrokers(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
