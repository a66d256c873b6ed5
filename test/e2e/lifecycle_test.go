//go:build e2e

package e2e

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/reconcile"
)

const (
	specTimeout  = 5 * time.Minute
	pollInterval = 2 * time.Second
)

// eventLog collects run events; the executor emits from worker goroutines.
type eventLog struct {
	mu     sync.Mutex
	events []orchestrate.Event
}

func (l *eventLog) notify(ev orchestrate.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) typesFor(phase string) []orchestrate.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []orchestrate.EventType
	for _, ev := range l.events {
		if ev.Phase == phase {
			out = append(out, ev.Type)
		}
	}
	return out
}

var _ = Describe("platform lifecycle", Ordered, func() {
	var plan orchestrate.Plan

	BeforeAll(func() {
		var err error
		plan, err = workloadPlan(namespace)
		Expect(err).NotTo(HaveOccurred())
	})

	It("deploys every phase in dependency order", func() {
		ctx, cancel := context.WithTimeout(context.Background(), specTimeout)
		defer cancel()

		log := &eventLog{}
		pipeline, err := orchestrate.NewPipeline(client, plan,
			orchestrate.WithPipelineNotify(log.notify),
			orchestrate.WithPipelinePollInterval(pollInterval))
		Expect(err).NotTo(HaveOccurred())

		summary, err := pipeline.Deploy(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Success).To(BeTrue(), "summary: %s", summary)
		Expect(summary.Counts[orchestrate.StatusSucceeded]).To(Equal(2))

		By("emitting started before succeeded for the gated phase")
		types := log.typesFor("workload")
		Expect(types).To(ContainElements(
			orchestrate.EventPhaseStarted,
			orchestrate.EventCheckSatisfied,
			orchestrate.EventPhaseSucceeded,
		))
	})

	It("re-runs idempotently", func() {
		ctx, cancel := context.WithTimeout(context.Background(), specTimeout)
		defer cancel()

		pipeline, err := orchestrate.NewPipeline(client, plan,
			orchestrate.WithPipelinePollInterval(pollInterval))
		Expect(err).NotTo(HaveOccurred())

		summary, err := pipeline.Deploy(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Success).To(BeTrue(), "second run must converge, not conflict")
	})

	It("reports full health through inspection", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		health, err := orchestrate.InspectPlan(ctx, client, plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(health).To(HaveLen(2))

		for _, h := range health {
			Expect(h.Deployed()).To(BeTrue(), "phase %s missing resources: %v", h.Phase, h.MissingResources)
			Expect(h.Healthy()).To(BeTrue(), "phase %s unhealthy", h.Phase)
		}
	})

	It("repairs a deleted resource in one convergence pass", func() {
		ctx, cancel := context.WithTimeout(context.Background(), specTimeout)
		defer cancel()

		cm, ok := findDescriptor(plan, "workload", "ConfigMap", "pipeline-settings")
		Expect(ok).To(BeTrue())

		By("deleting the config map out from under the platform")
		Expect(client.Delete(ctx, cm.Object)).To(Succeed())
		Eventually(func() (bool, error) {
			return client.Exists(ctx, cm.Object)
		}, time.Minute, pollInterval).Should(BeFalse())

		By("running one convergence pass")
		rec, err := reconcile.New(client, plan)
		Expect(err).NotTo(HaveOccurred())

		result := rec.Pass(ctx)
		Expect(result.Failures).To(BeZero())
		Expect(result.Repaired).To(BeNumerically(">=", 1))

		exists, err := client.Exists(ctx, cm.Object)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue(), "config map not recreated")
	})

	It("tears everything down in reverse order", func() {
		ctx, cancel := context.WithTimeout(context.Background(), specTimeout)
		defer cancel()

		teardown, err := orchestrate.NewTeardown(client, plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(teardown.Run(ctx)).To(Succeed())

		ns, ok := findDescriptor(plan, "namespaces", "Namespace", namespace)
		Expect(ok).To(BeTrue())

		Eventually(func() (bool, error) {
			return client.Exists(ctx, ns.Object)
		}, specTimeout, pollInterval).Should(BeFalse(), "namespace still terminating")
	})

	It("tolerates a second teardown", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		teardown, err := orchestrate.NewTeardown(client, plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(teardown.Run(ctx)).To(Succeed())
	})
})
