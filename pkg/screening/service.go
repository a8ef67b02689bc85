// Package screening sequences the submission pipeline: embed the submitted
// text, search the corpus, render the report, hold the submission for
// supervisor review, score the review, and fold accepted work back into the
// index so the detection surface grows with every decision.
package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/audit"
	"github.com/probitylab/screener/pkg/decision"
	"github.com/probitylab/screener/pkg/embeddings"
	"github.com/probitylab/screener/pkg/report"
	"github.com/probitylab/screener/pkg/storage"
	"github.com/probitylab/screener/pkg/submission"
	"github.com/probitylab/screener/pkg/utils"
	"github.com/probitylab/screener/pkg/vector"
)

// Minimum input lengths, counted in runes.
const (
	MinTitleLen       = 5
	MinDescriptionLen = 20
)

// SearchK is how many neighbors every submission is screened against.
const SearchK = 5

// Deps are the injected collaborators of the pipeline. Every component is
// an interface so production providers and deterministic test doubles plug
// in the same way.
type Deps struct {
	Embedder embeddings.Embedder
	Index    vector.Index
	Engine   decision.Engine
	Reports  report.Generator
	Store    storage.Driver
	Sink     audit.Sink
	Logger   *zap.Logger

	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Service is the submission pipeline.
type Service struct {
	embedder embeddings.Embedder
	index    vector.Index
	engine   decision.Engine
	reports  report.Generator
	store    storage.Driver
	sink     audit.Sink
	logger   *zap.Logger
	now      func() time.Time

	// acceptMu serializes corpus-id assignment with the index append so
	// concurrent accepts cannot mint duplicate record ids.
	acceptMu sync.Mutex
}

// NewService wires the pipeline from its collaborators.
func NewService(deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	sink := deps.Sink
	if sink == nil {
		sink = audit.NopSink{}
	}

	reports := deps.Reports
	if reports == nil {
		reports = report.NewGenerator()
	}

	return &Service{
		embedder: deps.Embedder,
		index:    deps.Index,
		engine:   deps.Engine,
		reports:  reports,
		store:    deps.Store,
		sink:     sink,
		logger:   deps.Logger,
		now:      now,
	}
}

// Submit validates and screens a new submission, stores it pending review,
// and returns it. The embedding call completes before anything is stored,
// so a provider failure leaves no partial state behind.
func (s *Service) Submit(ctx context.Context, studentID, title, description string) (*submission.Submission, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		studentID = "unknown"
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if utf8.RuneCountInString(title) < MinTitleLen {
		return nil, ValidationError{Field: "title", Reason: fmt.Sprintf("must be at least %d characters long", MinTitleLen)}
	}
	if utf8.RuneCountInString(description) < MinDescriptionLen {
		return nil, ValidationError{Field: "description", Reason: fmt.Sprintf("must be at least %d characters long", MinDescriptionLen)}
	}

	prepared := embeddings.PrepareText(title, description)
	embedding, err := s.embed(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("embedding submission: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, SearchK)
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}

	sub := &submission.Submission{
		StudentID:       studentID,
		Title:           title,
		Description:     description,
		SimilarProjects: hits,
		AIReport:        s.reports.Generate(hits),
		Status:          submission.StatusPendingReview,
		SubmittedAt:     s.now(),
	}

	id, err := s.store.Append(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("storing submission: %w", err)
	}
	sub.ID = id

	s.logger.Info("submission screened",
		zap.Int("submission_id", id),
		zap.String("student_id", studentID),
		zap.String("title", utils.Truncate(title, 80)),
		zap.Int("similar_projects", len(hits)),
		zap.Float64("top_similarity", sub.TopSimilarity()),
	)

	return sub, nil
}

// Rate applies a supervisor rating to a pending submission: computes the
// scores and decision, transitions the submission to reviewed, appends the
// audit record, and on accept grows the corpus by exactly one entry.
// Rating an already-reviewed submission fails with a ConflictError.
func (s *Service) Rate(ctx context.Context, id, rating int, comments string) (*submission.DecisionRecord, error) {
	if !decision.ValidRating(rating) {
		return nil, ValidationError{Field: "rating", Reason: "must be an integer between 0 and 5"}
	}

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Reviewed() {
		return nil, storage.ConflictError{ID: id}
	}

	aiScore := s.engine.AIScore(sub.SimilarProjects)
	finalScore := s.engine.FinalScore(aiScore, rating)
	outcome := s.engine.Decide(finalScore)
	reviewedAt := s.now()

	// On accept, obtain the embedding before any mutation so a provider
	// failure aborts the whole call with the submission still pending.
	var acceptEmbedding []float32
	var acceptText string
	if outcome == decision.Accept {
		acceptText = embeddings.PrepareText(sub.Title, sub.Description)
		acceptEmbedding, err = s.embed(ctx, acceptText)
		if err != nil {
			return nil, fmt.Errorf("embedding accepted submission: %w", err)
		}
	}

	if _, err := s.store.MarkReviewed(ctx, id, submission.Review{
		Rating:     rating,
		Comments:   comments,
		Decision:   outcome,
		FinalScore: finalScore,
		AIScore:    aiScore,
		ReviewedAt: reviewedAt,
	}); err != nil {
		return nil, err
	}

	rec := submission.DecisionRecord{
		SubmissionID:  id,
		Rating:        rating,
		Comments:      comments,
		FinalDecision: outcome,
		FinalScore:    finalScore,
		AIScore:       aiScore,
		Timestamp:     reviewedAt,
	}
	if err := s.store.AppendDecision(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording decision: %w", err)
	}

	if outcome == decision.Accept {
		if err := s.growCorpus(ctx, sub, acceptText, acceptEmbedding, reviewedAt); err != nil {
			return nil, err
		}
	}

	if err := s.sink.Publish(ctx, audit.NewEvent(rec)); err != nil {
		s.logger.Warn("failed to publish decision event",
			zap.Int("submission_id", id),
			zap.Error(err),
		)
	}

	s.logger.Info("submission reviewed",
		zap.Int("submission_id", id),
		zap.Int("rating", rating),
		zap.String("decision", string(outcome)),
		zap.Float64("final_score", finalScore),
		zap.Float64("ai_score", aiScore),
	)

	return &rec, nil
}

// growCorpus appends the accepted submission to the index. Record id
// assignment and the append happen under one lock so concurrent accepts
// get distinct, consecutive ids.
func (s *Service) growCorpus(ctx context.Context, sub *submission.Submission, text string, embedding []float32, reviewedAt time.Time) error {
	s.acceptMu.Lock()
	defer s.acceptMu.Unlock()

	rec := vector.ProjectRecord{
		ID:           s.index.Size() + 1,
		Title:        sub.Title,
		Year:         reviewedAt.Year(),
		Decision:     vector.DecisionAccept,
		OriginalText: text,
	}

	if err := s.index.Add(ctx, [][]float32{embedding}, []vector.ProjectRecord{rec}); err != nil {
		return fmt.Errorf("growing corpus: %w", err)
	}

	s.logger.Info("accepted submission added to corpus",
		zap.Int("project_id", rec.ID),
		zap.Int("corpus_size", s.index.Size()),
	)

	return nil
}

// PendingSubmission is a pending-review submission annotated with the
// derived risk level for the supervisor queue.
type PendingSubmission struct {
	submission.Submission

	RiskLevel         report.Risk `json:"risk_level"`
	HighestSimilarity float64     `json:"highest_similarity"`
}

// ListPending returns all submissions awaiting review, each annotated with
// its risk level and highest similarity.
func (s *Service) ListPending(ctx context.Context) ([]PendingSubmission, error) {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending submissions: %w", err)
	}

	out := make([]PendingSubmission, 0, len(pending))
	for _, sub := range pending {
		top := sub.TopSimilarity()
		out = append(out, PendingSubmission{
			Submission:        *sub,
			RiskLevel:         report.RiskLevel(top),
			HighestSimilarity: top,
		})
	}
	return out, nil
}

// Stats summarizes pipeline state.
type Stats struct {
	CorpusSize    int     `json:"corpus_size"`
	PendingCount  int     `json:"pending_count"`
	DecisionCount int     `json:"decision_count"`
	RejectionRate float64 `json:"rejection_rate"`
}

// Stats returns corpus size, pending count, decision count, and the
// rejection rate as a percentage of all decisions (0 when none).
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("listing pending submissions: %w", err)
	}

	decisions, err := s.store.Decisions(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("listing decisions: %w", err)
	}

	rejections := 0
	for _, d := range decisions {
		if d.FinalDecision == decision.Reject {
			rejections++
		}
	}

	stats := Stats{
		CorpusSize:    s.index.Size(),
		PendingCount:  len(pending),
		DecisionCount: len(decisions),
	}
	if len(decisions) > 0 {
		stats.RejectionRate = float64(rejections) / float64(len(decisions)) * 100
	}

	return stats, nil
}

// embed calls the embedding provider, normalizing any failure to the
// ErrUnavailable condition the error contract promises callers.
func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embeddings.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", embeddings.ErrUnavailable, err)
	}
	return embedding, nil
}
