package config

import (
	"github.com/probitylab/screener/pkg/decision"
)

const (
	defaultAPIListen = ":8080"

	defaultEmbeddingProvider   = "hashing"
	defaultEmbeddingDimensions = 384
	defaultEmbeddingRetries    = 3

	defaultVectorProvider = "flat"
	defaultDataDirName    = "index"

	defaultAuditTopic = "screener.decisions"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Dimensions: defaultEmbeddingDimensions,
			MaxRetries: defaultEmbeddingRetries,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Decision: DecisionConfig{
			SimilarityThreshold: f64(decision.DefaultSimilarityThreshold),
			RatingWeight:        f64(decision.DefaultRatingWeight),
			DecisionThreshold:   f64(decision.DefaultDecisionThreshold),
		},
		Audit: AuditConfig{
			Topic: defaultAuditTopic,
		},
	}
}

// Engine builds the decision engine from the configured parameters,
// falling back to the engine defaults for anything still unset.
func (c *Config) Engine() decision.Engine {
	e := decision.DefaultEngine()
	if c.Decision.SimilarityThreshold != nil {
		e.SimilarityThreshold = *c.Decision.SimilarityThreshold
	}
	if c.Decision.RatingWeight != nil {
		e.RatingWeight = *c.Decision.RatingWeight
	}
	if c.Decision.DecisionThreshold != nil {
		e.DecisionThreshold = *c.Decision.DecisionThreshold
	}
	return e
}

func f64(v float64) *float64 {
	return &v
}
