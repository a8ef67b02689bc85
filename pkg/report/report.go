// Package report renders ranked similarity hits into a risk-tiered,
// human-readable summary for the reviewing supervisor. Pure formatting:
// it never reads or mutates index state beyond the hits it is given.
package report

import (
	"fmt"
	"strings"

	"github.com/probitylab/screener/pkg/vector"
)

// Tier is a discrete risk bucket derived from the top hit's similarity.
type Tier string

const (
	TierHigh    Tier = "HIGH"
	TierMedium  Tier = "MEDIUM"
	TierLow     Tier = "LOW"
	TierVeryLow Tier = "VERY LOW"
)

// NoMatchesMessage is returned when a query finds no similar projects.
const NoMatchesMessage = "No similar projects found. This appears to be an original work."

// maxListed caps how many hits the report lists.
const maxListed = 3

// Generator renders a similarity report.
type Generator interface {
	// Generate returns a human-readable report for the ranked hits.
	Generate(hits []vector.Hit) string
}

// TierFor buckets a top similarity score into its risk tier and the tier's
// advisory sentence. Tiers: (0.8, inf) HIGH, (0.6, 0.8] MEDIUM,
// (0.4, 0.6] LOW, everything else VERY LOW.
func TierFor(score float64) (Tier, string) {
	switch {
	case score > 0.8:
		return TierHigh, "Strong evidence of potential plagiarism. Recommend careful review."
	case score > 0.6:
		return TierMedium, "Moderate similarity detected. Recommend supervisor review."
	case score > 0.4:
		return TierLow, "Low similarity detected. Common concepts may be shared."
	default:
		return TierVeryLow, "Minimal similarity. Likely original work."
	}
}

// Risk is the coarse three-level annotation shown on the pending-review list.
type Risk string

const (
	RiskHigh   Risk = "high"
	RiskMedium Risk = "medium"
	RiskLow    Risk = "low"
)

// RiskLevel buckets a submission's top similarity score for the pending
// list: above 0.7 high, above 0.4 medium, otherwise low.
func RiskLevel(topScore float64) Risk {
	switch {
	case topScore > 0.7:
		return RiskHigh
	case topScore > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// StandardGenerator is the production report renderer.
type StandardGenerator struct{}

// NewGenerator returns the standard report generator.
func NewGenerator() *StandardGenerator {
	return &StandardGenerator{}
}

// Generate renders the report: risk tier from the top hit, the top three
// hits with title, year, prior decision and score to three decimals, the
// tier's advisory text, and the total hit count.
func (g *StandardGenerator) Generate(hits []vector.Hit) string {
	if len(hits) == 0 {
		return NoMatchesMessage
	}

	tier, advice := TierFor(hits[0].Score)

	var b strings.Builder
	b.WriteString("PLAGIARISM DETECTION REPORT\n")
	b.WriteString("============================\n\n")
	fmt.Fprintf(&b, "RISK LEVEL: %s\n", tier)
	fmt.Fprintf(&b, "HIGHEST SIMILARITY SCORE: %.3f\n\n", hits[0].Score)
	b.WriteString("MOST SIMILAR EXISTING PROJECTS:\n")

	listed := hits
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	for i, hit := range listed {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, hit.Record.Title)
		fmt.Fprintf(&b, "    • Year: %d\n", hit.Record.Year)
		fmt.Fprintf(&b, "    • Previous Decision: %s\n", hit.Record.Decision)
		fmt.Fprintf(&b, "    • Similarity Score: %.3f\n", hit.Score)
	}

	b.WriteString("\nANALYSIS:\n")
	b.WriteString(advice)
	b.WriteString("\n")
	fmt.Fprintf(&b, "\nTotal similar projects found: %d\n", len(hits))

	return b.String()
}
