package audit_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/audit"
	"github.com/probitylab/screener/pkg/decision"
	"github.com/probitylab/screener/pkg/submission"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

var _ = Describe("NewEvent", func() {
	It("assigns a unique event id to each record", func() {
		rec := submission.DecisionRecord{
			SubmissionID:  1,
			Rating:        4,
			FinalDecision: decision.Accept,
			Timestamp:     time.Now(),
		}

		a := audit.NewEvent(rec)
		b := audit.NewEvent(rec)

		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(uuid.Validate(a.EventID)).To(Succeed())
		Expect(a.Record).To(Equal(rec))
	})
})

var _ = Describe("Sinks", func() {
	It("NopSink discards events without error", func() {
		sink := audit.NopSink{}
		Expect(sink.Publish(context.Background(), audit.DecisionEvent{})).To(Succeed())
		Expect(sink.Close()).To(Succeed())
	})

	It("LogSink publishes without error", func() {
		sink := audit.NewLogSink(zap.NewNop())
		event := audit.NewEvent(submission.DecisionRecord{SubmissionID: 2, FinalDecision: decision.Reject})
		Expect(sink.Publish(context.Background(), event)).To(Succeed())
		Expect(sink.Close()).To(Succeed())
	})
})
