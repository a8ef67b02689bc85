// Package submission defines the records that flow through the review
// pipeline: the submission itself, the supervisor's review, and the
// immutable decision audit entry.
package submission

import (
	"time"

	"github.com/probitylab/screener/pkg/decision"
	"github.com/probitylab/screener/pkg/vector"
)

// Status is the review state of a submission.
type Status string

const (
	// StatusPendingReview marks a submission waiting for a supervisor.
	StatusPendingReview Status = "pending_review"

	// StatusReviewed is terminal; a submission transitions to it exactly
	// once and is immutable afterwards.
	StatusReviewed Status = "reviewed"
)

// Submission is one screened project submission. The review fields are nil
// until the pending_review -> reviewed transition, which sets them all
// atomically.
type Submission struct {
	ID          int    `json:"submission_id"`
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// SimilarProjects is the ranked similarity snapshot taken at submit
	// time. Hits are copies, never live references into the index.
	SimilarProjects []vector.Hit `json:"similar_projects"`

	// AIReport is the rendered similarity report shown to the supervisor.
	AIReport string `json:"ai_report"`

	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"timestamp"`

	SupervisorRating   *int              `json:"supervisor_rating,omitempty"`
	SupervisorComments *string           `json:"supervisor_comments,omitempty"`
	FinalDecision      *decision.Outcome `json:"final_decision,omitempty"`
	FinalScore         *float64          `json:"final_score,omitempty"`
	AIScore            *float64          `json:"ai_score,omitempty"`
	ReviewedAt         *time.Time        `json:"reviewed_at,omitempty"`
}

// Reviewed reports whether the submission has reached its terminal state.
func (s *Submission) Reviewed() bool {
	return s.Status == StatusReviewed
}

// TopSimilarity returns the highest similarity score from the stored hits,
// 0 when there are none.
func (s *Submission) TopSimilarity() float64 {
	if len(s.SimilarProjects) == 0 {
		return 0
	}
	return s.SimilarProjects[0].Score
}

// Review is the supervisor's rating outcome applied to a submission in one
// atomic transition.
type Review struct {
	Rating     int
	Comments   string
	Decision   decision.Outcome
	FinalScore float64
	AIScore    float64
	ReviewedAt time.Time
}

// DecisionRecord is an immutable audit-log entry, appended once per review
// and never mutated.
type DecisionRecord struct {
	SubmissionID  int              `json:"submission_id"`
	Rating        int              `json:"rating"`
	Comments      string           `json:"comments"`
	FinalDecision decision.Outcome `json:"final_decision"`
	FinalScore    float64          `json:"final_score"`
	AIScore       float64          `json:"ai_score"`
	Timestamp     time.Time        `json:"timestamp"`
}
