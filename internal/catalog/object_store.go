package catalog

import (
	"context"
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/objectstore"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// objectStorePhase deploys the warehouse object store and provisions its
// buckets. Dev and staging run one standalone server; production runs
// distributed mode, which the chart renders as a StatefulSet, so the
// rollout check switches target kind with the topology.
func (b *Builder) objectStorePhase(ctx context.Context) (*orchestrate.Phase, error) {
	s := sizingFor(b.cfg.Environment())

	descriptors, err := b.chartDescriptors(ctx, "minio", NamespaceMinio, b.buildObjectStoreValues(s))
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseObjectStore, descriptors)
	if err != nil {
		return nil, err
	}

	rollout := b.check("server rollout", orchestrate.TargetDeployment, NamespaceMinio, "minio")
	if s.ha {
		rollout = b.check("server rollout", orchestrate.TargetStatefulSet, NamespaceMinio, "minio")
	}
	checks := []orchestrate.ReadinessCheck{
		rollout,
		b.check("s3 endpoints", orchestrate.TargetEndpoints, NamespaceMinio, "minio"),
	}

	phase := b.phase(PhaseObjectStore, "warehouse object store",
		[]string{PhaseNamespaces}, store, checks)
	phase.PostReady = b.bucketHook()
	return phase, nil
}

// buildObjectStoreValues wires the root credentials from the environment
// into the chart and sizes persistence per environment.
func (b *Builder) buildObjectStoreValues(s sizing) helm.Values {
	values := helm.Values{
		"rootUser":     b.deps.WarehouseAccessKey,
		"rootPassword": b.deps.WarehouseSecretKey,
		"mode":         "standalone",
		"persistence":  helm.PersistenceValues(true, s.minioStorage, ""),
		"resources":    s.resources(),
	}
	if s.ha {
		values["mode"] = "distributed"
		values["replicas"] = s.minioReplicas
	}
	return values
}

// bucketHook creates the configured buckets and probes the primary one with
// a round-trip write. It dials the client-side endpoint, so port-forwarded
// runs behave the same as in-cluster ones.
func (b *Builder) bucketHook() orchestrate.HookFunc {
	return func(ctx context.Context) error {
		client, err := b.newObjectStore(ctx,
			b.cfg.Warehouse.ClientEndpoint(),
			b.cfg.Warehouse.Region,
			b.deps.WarehouseAccessKey,
			b.deps.WarehouseSecretKey,
		)
		if err != nil {
			return retry.Fatal(fmt.Errorf("object store client: %w", err))
		}

		buckets := b.cfg.Warehouse.Buckets
		err = retry.Do(ctx, func() error {
			return client.EnsureBuckets(ctx, buckets)
		}, retry.WithPolicy(b.retryPolicy()), retry.WithClassifier(objectstore.Classify))
		if err != nil {
			return fmt.Errorf("ensure warehouse buckets: %w", err)
		}

		if err := client.VerifyReadWrite(ctx, primaryBucket(buckets)); err != nil {
			return fmt.Errorf("warehouse read-write probe: %w", err)
		}
		return nil
	}
}
