package flat_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/vector"
	"github.com/probitylab/screener/pkg/vector/flat"
)

func TestFlat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Flat Index Suite")
}

func record(id int, title string) vector.ProjectRecord {
	return vector.ProjectRecord{
		ID:       id,
		Title:    title,
		Year:     2020,
		Decision: vector.DecisionAccept,
	}
}

var _ = Describe("Index", func() {
	var (
		ctx   context.Context
		index *flat.Index
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		index, err = flat.NewIndex(3, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewIndex", func() {
		It("rejects non-positive dimensions", func() {
			_, err := flat.NewIndex(0, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Add", func() {
		It("grows the index", func() {
			err := index.Add(ctx,
				[][]float32{{1, 0, 0}, {0, 1, 0}},
				[]vector.ProjectRecord{record(1, "First"), record(2, "Second")},
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(index.Size()).To(Equal(2))
		})

		It("rejects mismatched vector and record counts", func() {
			err := index.Add(ctx,
				[][]float32{{1, 0, 0}},
				[]vector.ProjectRecord{record(1, "First"), record(2, "Second")},
			)
			Expect(err).To(MatchError(vector.ErrLengthMismatch))
			Expect(index.Size()).To(BeZero())
		})

		It("rejects vectors with the wrong dimension", func() {
			err := index.Add(ctx,
				[][]float32{{1, 0}},
				[]vector.ProjectRecord{record(1, "First")},
			)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(index.Size()).To(BeZero())
		})

		It("normalizes stored vectors so magnitude does not matter", func() {
			Expect(index.Add(ctx,
				[][]float32{{100, 0, 0}},
				[]vector.ProjectRecord{record(1, "Scaled")},
			)).To(Succeed())

			hits, err := index.Search(ctx, []float32{1, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(index.Add(ctx,
				[][]float32{{1, 0, 0}, {0, 1, 0}, {0.8, 0.6, 0}},
				[]vector.ProjectRecord{record(1, "X Axis"), record(2, "Y Axis"), record(3, "Diagonal")},
			)).To(Succeed())
		})

		It("returns hits in descending similarity with ranks assigned", func() {
			hits, err := index.Search(ctx, []float32{1, 0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))

			Expect(hits[0].Rank).To(Equal(1))
			Expect(hits[0].Record.Title).To(Equal("X Axis"))
			Expect(hits[0].Score).To(BeNumerically("~", 1.0, 1e-6))

			Expect(hits[1].Rank).To(Equal(2))
			Expect(hits[1].Record.Title).To(Equal("Diagonal"))
			Expect(hits[1].Score).To(BeNumerically("~", 0.8, 1e-6))

			Expect(hits[2].Rank).To(Equal(3))
			Expect(hits[2].Record.Title).To(Equal("Y Axis"))
		})

		It("breaks score ties by insertion order", func() {
			tie, err := flat.NewIndex(2, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			// Identical vectors: every search scores them equally.
			Expect(tie.Add(ctx,
				[][]float32{{1, 0}, {1, 0}, {1, 0}},
				[]vector.ProjectRecord{record(1, "First"), record(2, "Second"), record(3, "Third")},
			)).To(Succeed())

			for range 10 {
				hits, err := tie.Search(ctx, []float32{1, 0}, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(hits[0].Record.Title).To(Equal("First"))
				Expect(hits[1].Record.Title).To(Equal("Second"))
				Expect(hits[2].Record.Title).To(Equal("Third"))
			}
		})

		It("clamps k to the corpus size", func() {
			hits, err := index.Search(ctx, []float32{1, 0, 0}, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
		})

		It("defaults k when non-positive", func() {
			hits, err := index.Search(ctx, []float32{1, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
		})

		It("returns no hits from an empty index", func() {
			empty, err := flat.NewIndex(3, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			hits, err := empty.Search(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})

		It("rejects queries with the wrong dimension", func() {
			_, err := index.Search(ctx, []float32{1, 0}, 3)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("scores a zero-vector query as zero against everything", func() {
			hits, err := index.Search(ctx, []float32{0, 0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			for _, h := range hits {
				Expect(h.Score).To(BeZero())
			}
		})
	})
})

var _ = Describe("Save and Load", func() {
	var (
		ctx    context.Context
		tmpDir string
		index  *flat.Index
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "flat-index-*")
		Expect(err).NotTo(HaveOccurred())

		index, err = flat.NewIndex(3, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		Expect(index.Add(ctx,
			[][]float32{{1, 0, 0}, {0.6, 0.8, 0}},
			[]vector.ProjectRecord{record(1, "First"), record(2, "Second")},
		)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("round-trips vectors and records in order", func() {
		Expect(index.Save(tmpDir)).To(Succeed())

		loaded, err := flat.Load(tmpDir, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Size()).To(Equal(2))
		Expect(loaded.Dimensions()).To(Equal(3))

		hits, err := loaded.Search(ctx, []float32{0.6, 0.8, 0}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits[0].Record.Title).To(Equal("Second"))
		Expect(hits[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		Expect(hits[1].Record.Title).To(Equal("First"))
	})

	It("surfaces missing artifacts as not-exist", func() {
		_, err := flat.Load(filepath.Join(tmpDir, "nowhere"), zap.NewNop())
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("fails on a truncated vector store", func() {
		Expect(index.Save(tmpDir)).To(Succeed())

		path := filepath.Join(tmpDir, flat.VectorsFile)
		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(path, raw[:len(raw)-4], 0o644)).To(Succeed())

		_, err = flat.Load(tmpDir, zap.NewNop())
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})

	It("fails on a bad magic header", func() {
		Expect(index.Save(tmpDir)).To(Succeed())

		path := filepath.Join(tmpDir, flat.VectorsFile)
		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		raw[0] = 'X'
		Expect(os.WriteFile(path, raw, 0o644)).To(Succeed())

		_, err = flat.Load(tmpDir, zap.NewNop())
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})

	It("fails when the sidecar disagrees with the vector store", func() {
		Expect(index.Save(tmpDir)).To(Succeed())

		path := filepath.Join(tmpDir, flat.RecordsFile)
		Expect(os.WriteFile(path, []byte(`{"dimension":3,"count":1,"records":[{"id":1}]}`), 0o644)).To(Succeed())

		_, err := flat.Load(tmpDir, zap.NewNop())
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})

	It("fails on unparseable sidecar JSON", func() {
		Expect(index.Save(tmpDir)).To(Succeed())

		path := filepath.Join(tmpDir, flat.RecordsFile)
		Expect(os.WriteFile(path, []byte("not json"), 0o644)).To(Succeed())

		_, err := flat.Load(tmpDir, zap.NewNop())
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})
})

var _ = Describe("Normalize", func() {
	It("produces unit vectors", func() {
		v := vector.Normalize([]float32{3, 4})
		Expect(float64(v[0])).To(BeNumerically("~", 0.6, 1e-6))
		Expect(float64(v[1])).To(BeNumerically("~", 0.8, 1e-6))

		norm := math.Sqrt(float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]))
		Expect(norm).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("maps the zero vector to a zero copy", func() {
		v := vector.Normalize([]float32{0, 0, 0})
		Expect(v).To(Equal([]float32{0, 0, 0}))
	})

	It("does not mutate the input", func() {
		in := []float32{3, 4}
		vector.Normalize(in)
		Expect(in).To(Equal([]float32{3, 4}))
	})
})
