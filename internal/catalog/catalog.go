package catalog

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/platform/objectstore"
	"github.com/anhhoangdev/ldpctl/internal/platform/vault"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
	"github.com/anhhoangdev/ldpctl/internal/util/labels"
	"github.com/anhhoangdev/ldpctl/internal/util/naming"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// Phase names of the built-in platform plan.
const (
	PhaseNamespaces       = "namespaces"
	PhaseSecretsEngine    = "secrets-engine"
	PhaseSecretsBootstrap = "secrets-bootstrap"
	PhaseObjectStore      = "object-store"
	PhaseMetastoreDB      = "metastore-db"
	PhaseHiveMetastore    = "hive-metastore"
	PhaseGitOps           = "gitops"
	PhaseGitOpsApps       = "gitops-apps"
	PhaseQueryGateway     = "query-gateway"
	PhaseWorkflow         = "workflow-orchestrator"
	PhaseIngress          = "ingress"
	PhaseObservability    = "observability"
)

// Namespaces the built-in plan deploys its own services into. The embedded
// manifests reference these names, so they are not configurable without
// declaring explicit phases.
const (
	NamespaceVault         = "vault"
	NamespaceMinio         = "minio"
	NamespaceMetastore     = "metastore"
	NamespaceKyuubi        = "kyuubi"
	NamespaceAirflow       = "airflow"
	NamespaceObservability = "observability"
)

// Built-in secret consumer names.
const (
	ConsumerHiveMetastore = "hive-metastore"
	ConsumerKyuubi        = "kyuubi"
	ConsumerAirflow       = "airflow"
)

// DefaultConsumers returns the built-in secret consumer set: every platform
// service that reads credential material at runtime.
func DefaultConsumers() []config.ConsumerConfig {
	return []config.ConsumerConfig{
		{Name: ConsumerHiveMetastore, Namespace: NamespaceMetastore},
		{Name: ConsumerKyuubi, Namespace: NamespaceKyuubi},
		{Name: ConsumerAirflow, Namespace: NamespaceAirflow},
	}
}

// renderFunc renders one chart release into a multi-document manifest.
type renderFunc func(ctx context.Context, spec helm.ChartSpec, release, namespace string, values helm.Values) ([]byte, error)

// objectStore is the slice of the warehouse client the bucket hook needs.
type objectStore interface {
	EnsureBuckets(ctx context.Context, names []string) error
	VerifyReadWrite(ctx context.Context, bucket string) error
}

// objectStoreFactory dials the warehouse endpoint.
type objectStoreFactory func(ctx context.Context, endpoint, region, accessKey, secretKey string) (objectStore, error)

// Deps carries the live clients that plan hooks run against.
type Deps struct {
	// Kube applies resources and answers readiness inspections.
	Kube kube.Client

	// Vault bootstraps the secrets engine. Only the secrets-bootstrap
	// hooks dial it.
	Vault *vault.Client

	// WarehouseAccessKey and WarehouseSecretKey are the object store root
	// credentials. They come from the environment, never the config file.
	WarehouseAccessKey string
	WarehouseSecretKey string
}

// Builder turns a configuration into an executable deployment plan.
type Builder struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	deps     Deps

	// render and newObjectStore are swappable so tests assemble plans
	// without chart downloads or a live endpoint.
	render         renderFunc
	newObjectStore objectStoreFactory
}

// New creates a plan builder.
func New(cfg *config.Config, timeouts *config.Timeouts, deps Deps) *Builder {
	return &Builder{
		cfg:      cfg,
		timeouts: timeouts,
		deps:     deps,
		render:   helm.RenderRelease,
		newObjectStore: func(ctx context.Context, endpoint, region, accessKey, secretKey string) (objectStore, error) {
			return objectstore.NewClient(ctx, endpoint, region, accessKey, secretKey)
		},
	}
}

// Plan assembles the executable plan: the user-declared phases when any are
// configured, otherwise the built-in platform plan.
func (b *Builder) Plan(ctx context.Context) (orchestrate.Plan, error) {
	if b.cfg.HasCustomPlan() {
		return b.customPlan(ctx)
	}
	return b.platformPlan(ctx)
}

// platformPlan builds the twelve-phase data platform. Phase constructors
// may return a nil phase to drop themselves from the plan (no git repo
// registered, no query gateway consumer declared).
func (b *Builder) platformPlan(ctx context.Context) (orchestrate.Plan, error) {
	bindings := b.bindings()
	if err := b.validatePlatformInputs(bindings); err != nil {
		return nil, err
	}

	coordinator, err := b.newCoordinator(bindings)
	if err != nil {
		return nil, err
	}

	steps := []func() (*orchestrate.Phase, error){
		func() (*orchestrate.Phase, error) { return b.namespacesPhase(bindings) },
		func() (*orchestrate.Phase, error) { return b.secretsEnginePhase(ctx) },
		func() (*orchestrate.Phase, error) { return b.secretsBootstrapPhase(coordinator, bindings) },
		func() (*orchestrate.Phase, error) { return b.objectStorePhase(ctx) },
		func() (*orchestrate.Phase, error) { return b.metastoreDBPhase(ctx, bindings) },
		func() (*orchestrate.Phase, error) { return b.hiveMetastorePhase(bindings) },
		func() (*orchestrate.Phase, error) { return b.gitopsPhase(ctx) },
		func() (*orchestrate.Phase, error) { return b.gitopsAppsPhase(bindings) },
		func() (*orchestrate.Phase, error) { return b.queryGatewayPhase(ctx, bindings) },
		func() (*orchestrate.Phase, error) { return b.workflowPhase(ctx, bindings) },
		func() (*orchestrate.Phase, error) { return b.ingressPhase(bindings) },
		func() (*orchestrate.Phase, error) { return b.observabilityPhase(ctx) },
	}

	plan := make(orchestrate.Plan, 0, len(steps))
	for _, step := range steps {
		phase, err := step()
		if err != nil {
			return nil, err
		}
		if phase == nil {
			continue
		}
		plan = append(plan, phase)
	}
	return plan, nil
}

// bindings returns the configured consumer bindings, or the built-in set
// when the configuration declares none.
func (b *Builder) bindings() []secrets.Binding {
	if len(b.cfg.Consumers) > 0 {
		return b.cfg.Bindings()
	}
	consumers := DefaultConsumers()
	bindings := make([]secrets.Binding, len(consumers))
	for i, c := range consumers {
		bindings[i] = c.Binding()
	}
	return bindings
}

// validatePlatformInputs rejects configurations the built-in plan cannot
// serve, before anything touches the cluster.
func (b *Builder) validatePlatformInputs(bindings []secrets.Binding) error {
	if b.deps.WarehouseAccessKey == "" || b.deps.WarehouseSecretKey == "" {
		return fmt.Errorf("object store credentials missing: set WAREHOUSE_ACCESS_KEY and WAREHOUSE_SECRET_KEY")
	}

	hive, ok := findBinding(bindings, ConsumerHiveMetastore)
	if !ok {
		return fmt.Errorf("the built-in plan requires a %q consumer; add it back or declare explicit phases", ConsumerHiveMetastore)
	}
	if hive.Namespace != NamespaceMetastore ||
		hive.ServiceAccount != ConsumerHiveMetastore ||
		hive.Destination != naming.DestinationSecret(ConsumerHiveMetastore) {
		return fmt.Errorf("the embedded metastore manifests expect the %s consumer in namespace %q with service account %q and destination %q; declare explicit phases to change the layout",
			ConsumerHiveMetastore, NamespaceMetastore, ConsumerHiveMetastore, naming.DestinationSecret(ConsumerHiveMetastore))
	}

	airflow, ok := findBinding(bindings, ConsumerAirflow)
	if !ok {
		return fmt.Errorf("the built-in plan requires an %q consumer; add it back or declare explicit phases", ConsumerAirflow)
	}
	if airflow.Namespace != NamespaceAirflow {
		return fmt.Errorf("the built-in plan deploys the workflow orchestrator into namespace %q; the %s consumer must live there", NamespaceAirflow, ConsumerAirflow)
	}

	if kyuubi, ok := findBinding(bindings, ConsumerKyuubi); ok && kyuubi.Namespace != NamespaceKyuubi {
		return fmt.Errorf("the built-in plan deploys the query gateway into namespace %q; the %s consumer must live there", NamespaceKyuubi, ConsumerKyuubi)
	}

	return nil
}

// newCoordinator wires the secrets coordinator for the bootstrap phase. The
// sync operator's connection object carries the declared in-cluster address;
// only the CLI-side Vault client dials the environment override.
func (b *Builder) newCoordinator(bindings []secrets.Binding) (*secrets.Coordinator, error) {
	seeds, err := seedsFor(bindings, b.deps.WarehouseAccessKey, b.deps.WarehouseSecretKey)
	if err != nil {
		return nil, fmt.Errorf("generate seed material: %w", err)
	}

	return secrets.NewCoordinator(b.deps.Vault, b.deps.Kube, bindings,
		secrets.WithMount(b.cfg.Vault.Mount),
		secrets.WithAuthMount(b.cfg.Vault.AuthPath),
		secrets.WithKubernetesAuth(vault.KubernetesAuthConfig{Host: b.cfg.Vault.KubernetesHost}),
		secrets.WithConnection(NamespaceVault, b.cfg.Vault.Address),
		secrets.WithSeeds(seeds),
		secrets.WithRetryPolicy(b.retryPolicy()),
		secrets.WithSyncTimeout(b.timeouts.SecretSync),
		secrets.WithSyncPollInterval(b.timeouts.CheckPoll),
	)
}

// findBinding looks a consumer's binding up by name.
func findBinding(bindings []secrets.Binding, consumer string) (secrets.Binding, bool) {
	for _, bind := range bindings {
		if bind.Consumer == consumer {
			return bind, true
		}
	}
	return secrets.Binding{}, false
}

// phaseLabels returns the managed-resource label set for one phase.
func (b *Builder) phaseLabels(phase string) map[string]string {
	return labels.NewBuilder(b.cfg.Platform.Name).
		WithPhase(phase).
		WithEnvironment(string(b.cfg.Environment())).
		Build()
}

// storeFor labels descriptors with the phase identity and collects them
// into an ordered store.
func (b *Builder) storeFor(phase string, descriptors []descriptor.Descriptor) (*descriptor.Store, error) {
	lbls := b.phaseLabels(phase)
	store := descriptor.NewStore()
	for _, d := range descriptors {
		if err := store.Add(d.Labeled(lbls)); err != nil {
			return nil, fmt.Errorf("phase %s: %w", phase, err)
		}
	}
	return store, nil
}

// chartDescriptors renders one platform chart and decodes the result.
// Chart coordinates honor the per-service overrides from the configuration,
// and the release is named after the chart so workload names match the
// upstream defaults the readiness checks expect.
func (b *Builder) chartDescriptors(ctx context.Context, service, namespace string, values helm.Values) ([]descriptor.Descriptor, error) {
	spec := helm.GetChartSpec(service, b.cfg.ChartOverride(service))
	if spec.Name == "" {
		return nil, fmt.Errorf("no chart registered for service %q", service)
	}

	manifest, err := b.render(ctx, spec, naming.Release(service), namespace, values)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", service, err)
	}

	store := descriptor.NewStore()
	if err := store.AddManifest(manifest); err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", service, err)
	}
	return store.List(), nil
}

// phase fills the run-level defaults into a phase skeleton.
func (b *Builder) phase(name, description string, dependsOn []string, resources *descriptor.Store, checks []orchestrate.ReadinessCheck) *orchestrate.Phase {
	return &orchestrate.Phase{
		Name:        name,
		Description: description,
		DependsOn:   dependsOn,
		Resources:   resources,
		Checks:      checks,
		Timeout:     b.timeouts.Phase,
		Retry:       b.retryPolicy(),
	}
}

// check builds a required readiness check with the run-level timeout.
func (b *Builder) check(name string, target orchestrate.CheckTarget, namespace, ref string) orchestrate.ReadinessCheck {
	return orchestrate.ReadinessCheck{
		Name:      name,
		Target:    target,
		Namespace: namespace,
		Ref:       ref,
		Timeout:   b.timeouts.Check,
		Required:  true,
	}
}

// optionalCheck builds a check whose timeout degrades to a warning.
func (b *Builder) optionalCheck(name string, target orchestrate.CheckTarget, namespace, ref string) orchestrate.ReadinessCheck {
	c := b.check(name, target, namespace, ref)
	c.Required = false
	return c
}

// retryPolicy derives the per-resource apply policy from the run-level knobs.
func (b *Builder) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  b.timeouts.RetryMaxAttempts,
		InitialDelay: b.timeouts.RetryInitialDelay,
	}.OrDefault()
}

// primaryBucket returns the bucket backing the warehouse root: the first
// configured bucket.
func primaryBucket(buckets []string) string {
	if len(buckets) == 0 {
		return "warehouse"
	}
	return buckets[0]
}

// namespaceDescriptor builds a Namespace payload.
func namespaceDescriptor(name string) descriptor.Descriptor {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name": name,
		},
	}}
	return descriptor.New(obj)
}

// serviceAccountDescriptor builds a ServiceAccount payload.
func serviceAccountDescriptor(namespace, name string) descriptor.Descriptor {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ServiceAccount",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
	}}
	return descriptor.New(obj)
}

// secretDescriptor builds an Opaque Secret payload from string data.
func secretDescriptor(namespace, name string, data map[string]string) descriptor.Descriptor {
	stringData := make(map[string]interface{}, len(data))
	for k, v := range data {
		stringData[k] = v
	}
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"type":       "Opaque",
		"stringData": stringData,
	}}
	return descriptor.New(obj)
}

// secretRef builds the minimal object the client needs to look a Secret up.
func secretRef(namespace, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion("v1")
	obj.SetKind("Secret")
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}
