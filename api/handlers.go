package api

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/decision"
	"github.com/probitylab/screener/pkg/embeddings"
	"github.com/probitylab/screener/pkg/screening"
	"github.com/probitylab/screener/pkg/storage"
	"github.com/probitylab/screener/pkg/vector"
)

// ErrorResponse is the JSON body for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitRequest is the body of POST /api/submit.
type SubmitRequest struct {
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubmitResponse echoes the screened submission back to the student.
type SubmitResponse struct {
	SubmissionID    int          `json:"submission_id"`
	AIReport        string       `json:"ai_report"`
	SimilarProjects []vector.Hit `json:"similar_projects"`
	Status          string       `json:"status"`
	Message         string       `json:"message"`
}

// RateRequest is the body of POST /api/supervisor/rate.
type RateRequest struct {
	SubmissionID *int   `json:"submission_id"`
	Rating       *int   `json:"rating"`
	Comments     string `json:"comments"`
}

// RateResponse reports the review outcome to the supervisor.
type RateResponse struct {
	SubmissionID       int     `json:"submission_id"`
	Rating             int     `json:"rating"`
	FinalDecision      string  `json:"final_decision"`
	FinalScore         float64 `json:"final_score"`
	AIScore            float64 `json:"ai_score"`
	Message            string  `json:"message"`
	ProjectsInDatabase int     `json:"projects_in_database"`
}

// handleHealth returns system liveness and headline counts.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	stats, err := s.service.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to gather stats"})
	}

	return c.JSON(fiber.Map{
		"status":              "healthy",
		"timestamp":           time.Now().Format(time.RFC3339),
		"projects_loaded":     stats.CorpusSize,
		"submissions_pending": stats.PendingCount,
	})
}

// handleSubmit screens a new project submission and stores it for review.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	sub, err := s.service.Submit(c.Context(), req.StudentID, req.Title, req.Description)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(SubmitResponse{
		SubmissionID:    sub.ID,
		AIReport:        sub.AIReport,
		SimilarProjects: sub.SimilarProjects,
		Status:          "submitted",
		Message:         "Project submitted successfully for review",
	})
}

// handleListPending returns all submissions awaiting supervisor review,
// annotated with risk level.
func (s *Server) handleListPending(c *fiber.Ctx) error {
	pending, err := s.service.ListPending(c.Context())
	if err != nil {
		s.logger.Error("failed to list pending submissions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list submissions"})
	}

	return c.JSON(pending)
}

// handleRate applies a supervisor rating and returns the decision.
func (s *Server) handleRate(c *fiber.Ctx) error {
	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.SubmissionID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "submission_id is required"})
	}
	if req.Rating == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "rating must be an integer between 0 and 5"})
	}

	rec, err := s.service.Rate(c.Context(), *req.SubmissionID, *req.Rating, req.Comments)
	if err != nil {
		return s.writeError(c, err)
	}

	stats, err := s.service.Stats(c.Context())
	if err != nil {
		s.logger.Warn("failed to gather stats after rating", zap.Error(err))
	}

	message := "Rating submitted successfully"
	if rec.FinalDecision == decision.Accept {
		message += ". Project added to database."
	} else {
		message += ". Project rejected."
	}

	return c.JSON(RateResponse{
		SubmissionID:       rec.SubmissionID,
		Rating:             rec.Rating,
		FinalDecision:      string(rec.FinalDecision),
		FinalScore:         round3(rec.FinalScore),
		AIScore:            round3(rec.AIScore),
		Message:            message,
		ProjectsInDatabase: stats.CorpusSize,
	})
}

// handleStats returns comprehensive system statistics.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.service.Stats(c.Context())
	if err != nil {
		s.logger.Error("failed to gather stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to gather statistics"})
	}

	return c.JSON(fiber.Map{
		"projects": fiber.Map{
			"total_projects": stats.CorpusSize,
		},
		"submissions": fiber.Map{
			"pending_reviews": stats.PendingCount,
			"total_decisions": stats.DecisionCount,
			"rejection_rate":  math.Round(stats.RejectionRate*10) / 10,
		},
	})
}

// writeError maps pipeline errors onto HTTP statuses: validation 400,
// unknown id 404, already reviewed 409, embedder down 502, the rest 500.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	var (
		validationErr screening.ValidationError
		notFoundErr   storage.NotFoundError
		conflictErr   storage.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Submission not found"})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: fmt.Sprintf("Submission %d has already been reviewed", conflictErr.ID)})
	case errors.Is(err, embeddings.ErrUnavailable):
		s.logger.Error("embedding provider unavailable", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "Embedding service unavailable, please retry"})
	default:
		s.logger.Error("internal error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Internal server error"})
	}
}

// round3 keeps scores readable in responses without changing stored values.
func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
