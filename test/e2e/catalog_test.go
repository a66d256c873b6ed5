//go:build e2e

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	ldptest "github.com/anhhoangdev/ldpctl/internal/testing"
)

// The full platform rollout is too heavy for a disposable cluster, but plan
// assembly and inspection run the real catalog against the live API server.
var _ = Describe("built-in platform plan", func() {
	var plan orchestrate.Plan

	BeforeEach(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		cfg := ldptest.FullConfig()
		deps := catalog.Deps{
			Kube:               client,
			WarehouseAccessKey: "e2e-access",
			WarehouseSecretKey: "e2e-secret",
		}

		var err error
		plan, err = catalog.New(cfg, config.LoadTimeouts(), deps).Plan(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	It("assembles an acyclic plan with every built-in phase", func() {
		g, err := plan.Graph()
		Expect(err).NotTo(HaveOccurred())
		Expect(g).NotTo(BeNil())

		names := plan.Names()
		Expect(names).To(ContainElements(
			"namespaces",
			"secrets-engine",
			"secrets-bootstrap",
			"object-store",
			"metastore-db",
			"hive-metastore",
			"query-gateway",
			"workflow-orchestrator",
			"ingress",
		))
	})

	It("inspects an undeployed platform without error", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		health, err := orchestrate.InspectPlan(ctx, client, plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(health).To(HaveLen(len(plan)))

		for _, h := range health {
			Expect(h.Deployed()).To(BeFalse(), "phase %s should not be on a fresh cluster", h.Phase)
		}
	})
})
