// Package inmemory provides the in-process submission store. Submissions
// only live for the duration of a review cycle; the growing corpus is
// persisted by the vector index, not here.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/probitylab/screener/pkg/storage"
	"github.com/probitylab/screener/pkg/submission"
)

// Driver implements storage.Driver with mutex-guarded slices.
type Driver struct {
	// mu serializes id assignment, appends, and review transitions.
	mu sync.RWMutex

	// submissions holds every submission in id order; submissions[i] has
	// id i+1.
	submissions []*submission.Submission

	// decisions is the append-only audit log.
	decisions []submission.DecisionRecord
}

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{}
}

// Append stores a copy of sub under the next id and returns that id.
func (s *Driver) Append(_ context.Context, sub *submission.Submission) (int, error) {
	if sub == nil {
		return 0, errors.New("cannot store nil submission")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copySubmission(sub)
	stored.ID = len(s.submissions) + 1
	s.submissions = append(s.submissions, stored)

	return stored.ID, nil
}

// Get retrieves a copy of the submission with the given id.
func (s *Driver) Get(_ context.Context, id int) (*submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, err := s.locked(id)
	if err != nil {
		return nil, err
	}
	return copySubmission(sub), nil
}

// ListPending returns copies of all pending submissions in id order.
func (s *Driver) ListPending(_ context.Context) ([]*submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*submission.Submission, 0)
	for _, sub := range s.submissions {
		if sub.Status == submission.StatusPendingReview {
			pending = append(pending, copySubmission(sub))
		}
	}
	return pending, nil
}

// MarkReviewed transitions the submission to reviewed, stamping all review
// fields atomically under the write lock.
func (s *Driver) MarkReviewed(_ context.Context, id int, review submission.Review) (*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.locked(id)
	if err != nil {
		return nil, err
	}
	if sub.Reviewed() {
		return nil, storage.ConflictError{ID: id}
	}

	rating := review.Rating
	comments := review.Comments
	outcome := review.Decision
	finalScore := review.FinalScore
	aiScore := review.AIScore
	reviewedAt := review.ReviewedAt

	sub.Status = submission.StatusReviewed
	sub.SupervisorRating = &rating
	sub.SupervisorComments = &comments
	sub.FinalDecision = &outcome
	sub.FinalScore = &finalScore
	sub.AIScore = &aiScore
	sub.ReviewedAt = &reviewedAt

	return copySubmission(sub), nil
}

// AppendDecision appends an entry to the audit log.
func (s *Driver) AppendDecision(_ context.Context, rec submission.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions = append(s.decisions, rec)
	return nil
}

// Decisions returns a copy of the audit log in append order.
func (s *Driver) Decisions(_ context.Context) ([]submission.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]submission.DecisionRecord, len(s.decisions))
	copy(out, s.decisions)
	return out, nil
}

// Close releases resources held by the store.
func (s *Driver) Close() error {
	return nil
}

// locked returns the stored submission for id. Callers hold s.mu.
func (s *Driver) locked(id int) (*submission.Submission, error) {
	if id < 1 || id > len(s.submissions) {
		return nil, storage.NotFoundError{ID: id}
	}
	return s.submissions[id-1], nil
}

// copySubmission deep-copies a submission so callers never share the
// stored hits slice or review field pointers.
func copySubmission(in *submission.Submission) *submission.Submission {
	out := *in

	out.SimilarProjects = append(out.SimilarProjects[:0:0], in.SimilarProjects...)

	if in.SupervisorRating != nil {
		v := *in.SupervisorRating
		out.SupervisorRating = &v
	}
	if in.SupervisorComments != nil {
		v := *in.SupervisorComments
		out.SupervisorComments = &v
	}
	if in.FinalDecision != nil {
		v := *in.FinalDecision
		out.FinalDecision = &v
	}
	if in.FinalScore != nil {
		v := *in.FinalScore
		out.FinalScore = &v
	}
	if in.AIScore != nil {
		v := *in.AIScore
		out.AIScore = &v
	}
	if in.ReviewedAt != nil {
		v := *in.ReviewedAt
		out.ReviewedAt = &v
	}

	return &out
}
