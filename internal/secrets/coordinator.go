package secrets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/platform/vault"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// State is the coordinator's position in the bootstrap sequence. The machine
// only moves forward; re-runs replay earlier transitions idempotently.
type State string

const (
	// StateUnregistered means no bootstrap work has happened yet.
	StateUnregistered State = "Unregistered"
	// StateTrustRegistered means the cluster auth method is configured.
	StateTrustRegistered State = "TrustRegistered"
	// StateRolesCreated means per-consumer policies and roles exist.
	StateRolesCreated State = "RolesCreated"
	// StateSecretsDeclared means KV material is seeded and sync bindings
	// are applied. No material has reached workloads yet.
	StateSecretsDeclared State = "SecretsDeclared"
	// StateSecretsSynchronized means every destination Secret has
	// materialized in the cluster.
	StateSecretsSynchronized State = "SecretsSynchronized"
)

const (
	// DefaultMount is the KV v2 mount the platform's secrets live under.
	DefaultMount = "secret"
	// DefaultAuthMount is the kubernetes auth mount sync logins go through.
	DefaultAuthMount = "kubernetes"
	// ConnectionName is the shared VaultConnection consumer auths point at.
	ConnectionName = "platform"
	// DefaultSyncTimeout bounds how long Synchronize waits for the sync
	// operator to materialize every destination Secret.
	DefaultSyncTimeout = 2 * time.Minute
	// DefaultSyncPollInterval is how often Synchronize re-inspects.
	DefaultSyncPollInterval = 5 * time.Second
)

// Coordinator drives the secrets bootstrap. Run performs trust registration,
// role provisioning and declaration; Synchronize confirms materialization
// after the phase's readiness gate has opened. Both are idempotent.
type Coordinator struct {
	vault    *vault.Client
	kube     kube.Client
	bindings []Binding

	mount         string
	authMount     string
	authRef       string
	connNamespace string
	connAddress   string
	auth          vault.KubernetesAuthConfig
	seeds         map[string]map[string]any
	roleTTL       string
	retry         retry.Policy
	syncWait      time.Duration
	syncPoll      time.Duration

	mu    sync.Mutex
	state State
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMount sets the KV v2 mount path.
func WithMount(mount string) CoordinatorOption {
	return func(c *Coordinator) { c.mount = mount }
}

// WithAuthMount sets the kubernetes auth mount consumer auths log in through.
func WithAuthMount(path string) CoordinatorOption {
	return func(c *Coordinator) { c.authMount = path }
}

// WithAuthRef points every sync binding at one externally managed VaultAuth
// instead of the per-consumer auths the coordinator declares itself.
func WithAuthRef(name string) CoordinatorOption {
	return func(c *Coordinator) { c.authRef = name }
}

// WithConnection declares a shared VaultConnection at the given namespace
// and Vault address; consumer auths are pointed at it. Without it the sync
// operator's default connection applies.
func WithConnection(namespace, address string) CoordinatorOption {
	return func(c *Coordinator) {
		c.connNamespace = namespace
		c.connAddress = address
	}
}

// WithKubernetesAuth sets the trust parameters written to the auth method.
func WithKubernetesAuth(cfg vault.KubernetesAuthConfig) CoordinatorOption {
	return func(c *Coordinator) { c.auth = cfg }
}

// WithSeeds registers initial material per KV path, written only when the
// path holds nothing yet.
func WithSeeds(seeds map[string]map[string]any) CoordinatorOption {
	return func(c *Coordinator) { c.seeds = seeds }
}

// WithRetryPolicy bounds each bootstrap call's attempts.
func WithRetryPolicy(p retry.Policy) CoordinatorOption {
	return func(c *Coordinator) { c.retry = p }
}

// WithSyncTimeout bounds the synchronization confirmation.
func WithSyncTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.syncWait = d }
}

// WithSyncPollInterval sets the synchronization re-inspection interval.
func WithSyncPollInterval(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.syncPoll = d }
}

// NewCoordinator validates the bindings and prepares a bootstrap.
func NewCoordinator(vaultClient *vault.Client, kubeClient kube.Client, bindings []Binding, opts ...CoordinatorOption) (*Coordinator, error) {
	if err := ValidateBindings(bindings); err != nil {
		return nil, fmt.Errorf("invalid secret bindings: %w", err)
	}

	c := &Coordinator{
		vault:     vaultClient,
		kube:      kubeClient,
		bindings:  bindings,
		mount:     DefaultMount,
		authMount: DefaultAuthMount,
		auth:      vault.KubernetesAuthConfig{Host: "https://kubernetes.default.svc:443"},
		roleTTL:   "1h",
		retry:     retry.DefaultPolicy(),
		syncWait:  DefaultSyncTimeout,
		syncPoll:  DefaultSyncPollInterval,
		state:     StateUnregistered,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the machine's current position.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// BindingDescriptors returns the declarative sync payloads: the shared
// VaultConnection when one is configured, one VaultAuth per consumer, and
// one VaultStaticSecret per binding. The owning phase registers them as
// resources so the reconciler converges them and teardown removes them.
func (c *Coordinator) BindingDescriptors() []descriptor.Descriptor {
	out := make([]descriptor.Descriptor, 0, 2*len(c.bindings)+1)

	connectionRef := ""
	if c.connAddress != "" {
		out = append(out, ConnectionDescriptor(ConnectionName, c.connNamespace, c.connAddress))
		connectionRef = c.connNamespace + "/" + ConnectionName
	}

	if c.authRef == "" {
		declared := make(map[string]bool, len(c.bindings))
		for _, b := range c.bindings {
			key := b.Namespace + "/" + b.AuthName()
			if declared[key] {
				continue
			}
			declared[key] = true
			out = append(out, b.AuthDescriptor(c.authMount, connectionRef))
		}
	}

	for _, b := range c.bindings {
		out = append(out, b.Descriptor(c.mount, c.authRefFor(b)))
	}
	return out
}

// authRefFor resolves the VaultAuth a binding's sync object references: the
// shared override when set, otherwise the consumer's own auth.
func (c *Coordinator) authRefFor(b Binding) string {
	if c.authRef != "" {
		return c.authRef
	}
	return b.AuthName()
}

// Run moves the machine from Unregistered to SecretsDeclared: trust
// registration, role provisioning, material seeding and binding application.
// Every step is idempotent; errors after bounded attempts are fatal to the
// owning phase.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.registerTrust(ctx); err != nil {
		return retry.Fatal(fmt.Errorf("trust registration: %w", err))
	}
	c.setState(StateTrustRegistered)

	if err := c.createRoles(ctx); err != nil {
		return retry.Fatal(fmt.Errorf("role provisioning: %w", err))
	}
	c.setState(StateRolesCreated)

	if err := c.declareSecrets(ctx); err != nil {
		return retry.Fatal(fmt.Errorf("secret declaration: %w", err))
	}
	c.setState(StateSecretsDeclared)

	return nil
}

// Synchronize confirms every destination Secret has materialized, polling
// until the timeout. The phase's readiness gate normally does the waiting;
// this is the final authoritative confirmation, and its error names the
// first secret that never arrived.
func (c *Coordinator) Synchronize(ctx context.Context) error {
	deadline := time.Now().Add(c.syncWait)

	for {
		missing, detail := c.missingSecret(ctx)
		if missing == "" {
			c.setState(StateSecretsSynchronized)
			return nil
		}

		if time.Now().After(deadline) {
			return retry.Fatal(fmt.Errorf("secret %s did not materialize within %s: %s", missing, c.syncWait, detail))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.syncPoll):
		}
	}
}

// missingSecret returns the identifier of the first destination Secret that
// has not materialized, or "" when all have.
func (c *Coordinator) missingSecret(ctx context.Context) (string, string) {
	for _, b := range c.bindings {
		ok, detail, err := c.kube.SecretMaterialized(ctx, b.Namespace, b.Destination)
		if err != nil {
			return b.Namespace + "/" + b.Destination, err.Error()
		}
		if !ok {
			return b.Namespace + "/" + b.Destination, detail
		}
	}
	return "", ""
}

func (c *Coordinator) registerTrust(ctx context.Context) error {
	if err := c.vaultCall(ctx, "enable kubernetes auth", func() error {
		return c.vault.EnableKubernetesAuth(ctx)
	}); err != nil {
		return err
	}

	return c.vaultCall(ctx, "configure kubernetes auth", func() error {
		return c.vault.ConfigureKubernetesAuth(ctx, c.auth)
	})
}

// createRoles writes one policy per binding and one role per consumer. A
// consumer with several bindings gets every matching policy on its role.
func (c *Coordinator) createRoles(ctx context.Context) error {
	type consumerRole struct {
		namespace      string
		serviceAccount string
		policies       []string
	}
	roles := make(map[string]*consumerRole)

	for _, b := range c.bindings {
		if err := c.vaultCall(ctx, "write policy "+b.PolicyName(), func() error {
			return c.vault.WritePolicy(ctx, b.PolicyName(), b.PolicyRules(c.mount))
		}); err != nil {
			return err
		}

		role, ok := roles[b.RoleName()]
		if !ok {
			role = &consumerRole{namespace: b.Namespace, serviceAccount: b.ServiceAccount}
			roles[b.RoleName()] = role
		}
		role.policies = append(role.policies, b.PolicyName())
	}

	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		role := roles[name]
		sort.Strings(role.policies)
		if err := c.vaultCall(ctx, "write role "+name, func() error {
			return c.vault.WriteKubernetesRole(ctx, name, vault.KubernetesRole{
				BoundServiceAccountNames:      []string{role.serviceAccount},
				BoundServiceAccountNamespaces: []string{role.namespace},
				Policies:                      role.policies,
				TTL:                           c.roleTTL,
			})
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) declareSecrets(ctx context.Context) error {
	if err := c.vaultCall(ctx, "enable kv mount "+c.mount, func() error {
		return c.vault.EnableKVEngine(ctx, c.mount)
	}); err != nil {
		return err
	}

	if err := c.seedMaterial(ctx); err != nil {
		return err
	}

	for _, d := range c.BindingDescriptors() {
		d := d
		err := retry.Do(ctx, func() error {
			return c.kube.Apply(ctx, d.Object)
		}, retry.WithPolicy(c.retry), retry.WithClassifier(kube.Classify))
		if err != nil {
			return fmt.Errorf("apply binding %s: %w", d.Key(), err)
		}
	}
	return nil
}

// seedMaterial writes initial credentials for paths that hold nothing yet.
// Existing material is never overwritten, so rotation stays in Vault's hands.
func (c *Coordinator) seedMaterial(ctx context.Context) error {
	paths := make([]string, 0, len(c.seeds))
	for path := range c.seeds {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var existing map[string]any
		err := retry.Do(ctx, func() error {
			var rerr error
			existing, rerr = c.vault.ReadSecret(ctx, c.mount, path)
			if errors.Is(rerr, vault.ErrNotFound) {
				existing = nil
				return nil
			}
			return rerr
		}, retry.WithPolicy(c.retry), retry.WithClassifier(vault.Classify))
		if err != nil {
			return fmt.Errorf("read %s/%s: %w", c.mount, path, err)
		}
		if len(existing) > 0 {
			continue
		}

		if err := c.vaultCall(ctx, fmt.Sprintf("seed %s/%s", c.mount, path), func() error {
			return c.vault.WriteSecret(ctx, c.mount, path, c.seeds[path])
		}); err != nil {
			return err
		}
	}
	return nil
}

// vaultCall routes one bootstrap call through the retry controller with the
// Vault error classifier.
func (c *Coordinator) vaultCall(ctx context.Context, what string, op func() error) error {
	err := retry.Do(ctx, op, retry.WithPolicy(c.retry), retry.WithClassifier(vault.Classify))
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// Consumers returns the distinct consumer names, for logs and status output.
func (c *Coordinator) Consumers() string {
	seen := make(map[string]bool)
	var names []string
	for _, b := range c.bindings {
		if !seen[b.Consumer] {
			seen[b.Consumer] = true
			names = append(names, b.Consumer)
		}
	}
	return strings.Join(names, ", ")
}
