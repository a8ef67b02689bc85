// Package decision holds the pure scoring functions that combine the
// automatic similarity signal with the supervisor's rating into an
// accept/reject outcome. No state, no side effects: identical inputs
// always produce identical outputs.
package decision

import (
	"fmt"

	"github.com/probitylab/screener/pkg/vector"
)

// Outcome is a final review decision.
type Outcome string

const (
	// Accept folds the submission into the corpus.
	Accept Outcome = "accept"

	// Reject leaves the corpus unchanged.
	Reject Outcome = "reject"
)

// Default engine parameters.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultRatingWeight        = 0.3
	DefaultDecisionThreshold   = 0.5
)

// Engine carries the three externally configurable scoring parameters.
type Engine struct {
	// SimilarityThreshold scales the top similarity into the AI score;
	// must be positive.
	SimilarityThreshold float64

	// RatingWeight in [0, 1] is the share of the final score contributed
	// by the supervisor rating.
	RatingWeight float64

	// DecisionThreshold is the final-score cutoff; scores strictly above
	// it reject, everything else accepts.
	DecisionThreshold float64
}

// DefaultEngine returns an Engine with the default parameters.
func DefaultEngine() Engine {
	return Engine{
		SimilarityThreshold: DefaultSimilarityThreshold,
		RatingWeight:        DefaultRatingWeight,
		DecisionThreshold:   DefaultDecisionThreshold,
	}
}

// Validate checks the engine parameters.
func (e Engine) Validate() error {
	if e.SimilarityThreshold <= 0 {
		return fmt.Errorf("similarity threshold must be positive, got %g", e.SimilarityThreshold)
	}
	if e.RatingWeight < 0 || e.RatingWeight > 1 {
		return fmt.Errorf("rating weight must be in [0, 1], got %g", e.RatingWeight)
	}
	return nil
}

// AIScore maps the ranked hits to a score in [0, 1]. Only the top hit
// matters; no hits means no automatic suspicion at all.
func (e Engine) AIScore(hits []vector.Hit) float64 {
	if len(hits) == 0 {
		return 0.0
	}
	score := hits[0].Score / e.SimilarityThreshold
	if score > 1.0 {
		return 1.0
	}
	return score
}

// FinalScore blends the AI score with the supervisor rating. A rating of 0
// maximizes suspicion, 5 minimizes it. The result is monotonic in the AI
// score and in (5 - rating), clamped to 1.0.
func (e Engine) FinalScore(aiScore float64, rating int) float64 {
	ratingScore := float64(5-rating) / 5
	score := aiScore*(1-e.RatingWeight) + ratingScore*e.RatingWeight
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Decide rejects iff finalScore is strictly greater than the decision
// threshold; a score exactly at the threshold accepts.
func (e Engine) Decide(finalScore float64) Outcome {
	if finalScore > e.DecisionThreshold {
		return Reject
	}
	return Accept
}

// ValidRating reports whether r is a supervisor rating in [0, 5].
func ValidRating(r int) bool {
	return r >= 0 && r <= 5
}
