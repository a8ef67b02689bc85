// Package storage
package storage

import (
	"context"

	"github.com/probitylab/screener/pkg/submission"
)

// Driver defines the interface for persisting and retrieving submissions and
// decision records. Implementations own id assignment: appends and the
// pending_review -> reviewed transition are serialized internally so ids are
// unique and a submission is reviewed at most once.
type Driver interface {
	// Append stores a new submission, assigns it the next monotonically
	// increasing id (starting at 1), and returns that id.
	Append(ctx context.Context, sub *submission.Submission) (int, error)

	// Get retrieves a submission by id. Returns NotFoundError if no
	// submission with that id exists.
	Get(ctx context.Context, id int) (*submission.Submission, error)

	// ListPending returns all submissions still pending review, ordered
	// by ascending id.
	ListPending(ctx context.Context) ([]*submission.Submission, error)

	// MarkReviewed applies the review to a pending submission in one
	// atomic transition and returns the updated submission. Returns
	// NotFoundError for an unknown id and ConflictError if the submission
	// was already reviewed.
	MarkReviewed(ctx context.Context, id int, review submission.Review) (*submission.Submission, error)

	// AppendDecision appends an entry to the immutable decision audit log.
	AppendDecision(ctx context.Context, rec submission.DecisionRecord) error

	// Decisions returns the decision audit log in append order.
	Decisions(ctx context.Context) ([]submission.DecisionRecord, error)

	// Close closes the store and releases any resources.
	Close() error
}
