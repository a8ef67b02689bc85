package screening_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/decision"
	"github.com/probitylab/screener/pkg/embeddings"
	"github.com/probitylab/screener/pkg/report"
	"github.com/probitylab/screener/pkg/screening"
	"github.com/probitylab/screener/pkg/storage"
	"github.com/probitylab/screener/pkg/storage/inmemory"
	"github.com/probitylab/screener/pkg/submission"
	testutils "github.com/probitylab/screener/pkg/utils/test"
	"github.com/probitylab/screener/pkg/vector"
	"github.com/probitylab/screener/pkg/vector/flat"
)

func TestScreening(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Screening Suite")
}

const longDescription = "A project description comfortably over the minimum length."

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		index    *flat.Index
		store    *inmemory.Driver
		service  *screening.Service
	)

	// submitText registers an embedding for a title + description pair and
	// returns the pair for Submit.
	submitText := func(title string, emb []float32) (string, string) {
		embedder.Embeddings[embeddings.PrepareText(title, longDescription)] = emb
		return title, longDescription
	}

	seedCorpus := func(title string, emb []float32) {
		Expect(index.Add(ctx,
			[][]float32{emb},
			[]vector.ProjectRecord{{
				ID:       index.Size() + 1,
				Title:    title,
				Year:     2022,
				Decision: vector.DecisionAccept,
			}},
		)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()

		var err error
		index, err = flat.NewIndex(3, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		store = inmemory.NewDriver()

		service = screening.NewService(screening.Deps{
			Embedder: embedder,
			Index:    index,
			Engine:   decision.DefaultEngine(),
			Reports:  report.NewGenerator(),
			Store:    store,
			Logger:   zap.NewNop(),
		})
	})

	Describe("NewService", func() {
		It("falls back to the standard report generator when none is wired", func() {
			bare := screening.NewService(screening.Deps{
				Embedder: embedder,
				Index:    index,
				Engine:   decision.DefaultEngine(),
				Store:    store,
				Logger:   zap.NewNop(),
			})

			title, desc := submitText("Machine Learning for Healthcare Analysis", []float32{1, 0, 0})
			sub, err := bare.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.AIReport).To(Equal(report.NoMatchesMessage))
		})
	})

	Describe("Submit", func() {
		It("rejects titles below the minimum length", func() {
			_, err := service.Submit(ctx, "s1", "Tiny", longDescription)

			var verr screening.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.Error()).To(ContainSubstring("title"))
		})

		It("counts title length in runes, not bytes", func() {
			// Four runes, twelve bytes: long enough in bytes, too
			// short in characters.
			_, err := service.Submit(ctx, "s1", "データ解", longDescription)

			var verr screening.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.Error()).To(ContainSubstring("title"))
		})

		It("accepts a five-rune multibyte title", func() {
			title := "データ解析"
			embedder.Embeddings[embeddings.PrepareText(title, longDescription)] = []float32{1, 0, 0}
			_, err := service.Submit(ctx, "s1", title, longDescription)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects descriptions below the minimum length", func() {
			_, err := service.Submit(ctx, "s1", "A Valid Title", "too short")

			var verr screening.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.Error()).To(ContainSubstring("description"))
		})

		It("validates after trimming surrounding whitespace", func() {
			_, err := service.Submit(ctx, "s1", "   Hi   ", longDescription)
			Expect(err).To(HaveOccurred())
		})

		It("defaults a blank student id to unknown", func() {
			title, desc := submitText("Machine Learning for Healthcare Analysis", []float32{1, 0, 0})
			sub, err := service.Submit(ctx, "  ", title, desc)
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.StudentID).To(Equal("unknown"))
		})

		It("screens against an empty corpus as original work", func() {
			title, desc := submitText("Machine Learning for Healthcare Analysis", []float32{1, 0, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			Expect(sub.ID).To(Equal(1))
			Expect(sub.Status).To(Equal(submission.StatusPendingReview))
			Expect(sub.SimilarProjects).To(BeEmpty())
			Expect(sub.AIReport).To(Equal(report.NoMatchesMessage))
			Expect(sub.TopSimilarity()).To(BeZero())
		})

		It("snapshots ranked hits against a populated corpus", func() {
			seedCorpus("Deep Learning Image Classifier", []float32{1, 0, 0})
			seedCorpus("Distributed Task Scheduler", []float32{0, 1, 0})

			title, desc := submitText("Image Classification with CNNs", []float32{1, 0, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			Expect(sub.SimilarProjects).To(HaveLen(2))
			Expect(sub.SimilarProjects[0].Record.Title).To(Equal("Deep Learning Image Classifier"))
			Expect(sub.SimilarProjects[0].Score).To(BeNumerically("~", 1.0, 1e-6))
			Expect(sub.AIReport).To(ContainSubstring("RISK LEVEL: HIGH"))
		})

		It("stores nothing when the embedding provider fails", func() {
			embedder.FailOn = embeddings.PrepareText("A Failing Title", longDescription)

			_, err := service.Submit(ctx, "s1", "A Failing Title", longDescription)
			Expect(err).To(MatchError(embeddings.ErrUnavailable))

			pending, err := store.ListPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())
		})
	})

	Describe("Rate", func() {
		It("rejects out-of-range ratings", func() {
			_, err := service.Rate(ctx, 1, 6, "")

			var verr screening.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
		})

		It("returns NotFoundError for unknown submissions", func() {
			_, err := service.Rate(ctx, 99, 3, "")
			Expect(err).To(MatchError(storage.NotFoundError{ID: 99}))
		})

		It("accepts an original submission and grows the corpus by one", func() {
			seedCorpus("Existing Project Title", []float32{1, 0, 0})

			title, desc := submitText("An Unrelated New Project", []float32{0, 1, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			before := index.Size()
			rec, err := service.Rate(ctx, sub.ID, 5, "clearly original")
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.FinalDecision).To(Equal(decision.Accept))
			Expect(index.Size()).To(Equal(before + 1))

			// The new corpus entry is searchable and carries the next id.
			hits, err := index.Search(ctx, []float32{0, 1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].Record.ID).To(Equal(before + 1))
			Expect(hits[0].Record.Title).To(Equal("An Unrelated New Project"))
			Expect(hits[0].Record.Decision).To(Equal(vector.DecisionAccept))
		})

		It("rejects a near-duplicate even with a perfect rating", func() {
			seedCorpus("Existing Project Title", []float32{1, 0, 0})

			title, desc := submitText("A Suspiciously Close Project", []float32{1, 0, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			before := index.Size()
			rec, err := service.Rate(ctx, sub.ID, 5, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.AIScore).To(Equal(1.0))
			Expect(rec.FinalScore).To(BeNumerically("~", 0.7, 1e-9))
			Expect(rec.FinalDecision).To(Equal(decision.Reject))
			Expect(index.Size()).To(Equal(before), "rejects never grow the corpus")
		})

		It("transitions the submission to reviewed and logs the decision", func() {
			title, desc := submitText("Some Original Project", []float32{0, 1, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Rate(ctx, sub.ID, 4, "looks fine")
			Expect(err).NotTo(HaveOccurred())

			got, err := store.Get(ctx, sub.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Reviewed()).To(BeTrue())
			Expect(*got.SupervisorRating).To(Equal(4))
			Expect(*got.SupervisorComments).To(Equal("looks fine"))

			decisions, err := store.Decisions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(decisions).To(HaveLen(1))
			Expect(decisions[0].SubmissionID).To(Equal(sub.ID))
		})

		It("conflicts on a second rating", func() {
			title, desc := submitText("Some Original Project", []float32{0, 1, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Rate(ctx, sub.ID, 5, "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Rate(ctx, sub.ID, 1, "")
			Expect(err).To(MatchError(storage.ConflictError{ID: sub.ID}))
		})

		It("aborts an accept without mutating anything when re-embedding fails", func() {
			title, desc := submitText("Some Original Project", []float32{0, 1, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			// Fail the accept-path embedding of the same prepared text.
			embedder.FailOn = embeddings.PrepareText(title, desc)

			before := index.Size()
			_, err = service.Rate(ctx, sub.ID, 5, "")
			Expect(err).To(MatchError(embeddings.ErrUnavailable))

			got, err := store.Get(ctx, sub.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Reviewed()).To(BeFalse(), "submission must stay pending")
			Expect(index.Size()).To(Equal(before))

			decisions, err := store.Decisions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(decisions).To(BeEmpty())
		})
	})

	Describe("ListPending", func() {
		It("annotates each pending submission with its risk level", func() {
			seedCorpus("Existing Project Title", []float32{1, 0, 0})

			title, desc := submitText("A Suspiciously Close Project", []float32{1, 0, 0})
			_, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			title, desc = submitText("An Unrelated New Project", []float32{0, 1, 0})
			_, err = service.Submit(ctx, "s2", title, desc)
			Expect(err).NotTo(HaveOccurred())

			pending, err := service.ListPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))

			Expect(pending[0].RiskLevel).To(Equal(report.RiskHigh))
			Expect(pending[0].HighestSimilarity).To(BeNumerically("~", 1.0, 1e-6))
			Expect(pending[1].RiskLevel).To(Equal(report.RiskLow))
		})

		It("excludes reviewed submissions", func() {
			title, desc := submitText("Some Original Project", []float32{0, 1, 0})
			sub, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Rate(ctx, sub.ID, 5, "")
			Expect(err).NotTo(HaveOccurred())

			pending, err := service.ListPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())
		})
	})

	Describe("Stats", func() {
		It("reports corpus size, counts and the rejection rate", func() {
			seedCorpus("Existing Project Title", []float32{1, 0, 0})

			title, desc := submitText("A Suspiciously Close Project", []float32{1, 0, 0})
			rejected, err := service.Submit(ctx, "s1", title, desc)
			Expect(err).NotTo(HaveOccurred())

			title, desc = submitText("An Unrelated New Project", []float32{0, 1, 0})
			accepted, err := service.Submit(ctx, "s2", title, desc)
			Expect(err).NotTo(HaveOccurred())

			title, desc = submitText("A Third Pending Project", []float32{0, 0, 1})
			_, err = service.Submit(ctx, "s3", title, desc)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Rate(ctx, rejected.ID, 0, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Rate(ctx, accepted.ID, 5, "")
			Expect(err).NotTo(HaveOccurred())

			stats, err := service.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(stats.CorpusSize).To(Equal(2), "seed plus one accept")
			Expect(stats.PendingCount).To(Equal(1))
			Expect(stats.DecisionCount).To(Equal(2))
			Expect(stats.RejectionRate).To(BeNumerically("~", 50.0, 1e-9))
		})

		It("reports a zero rejection rate with no decisions", func() {
			stats, err := service.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.RejectionRate).To(BeZero())
		})
	})
})
