// Package kube wraps the Kubernetes clients the orchestrator needs:
// Server-Side Apply and deletion of arbitrary manifests through the dynamic
// client, plus the readiness inspections the gate polls between phases.
package kube

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultFieldManager is the field manager recorded on objects applied by the CLI.
const DefaultFieldManager = "ldpctl"

// Client is the platform-facing Kubernetes surface. Implementations must be
// safe for concurrent use; the executor applies resources from a worker pool.
type Client interface {
	// Apply creates or updates an object via Server-Side Apply.
	Apply(ctx context.Context, obj *unstructured.Unstructured) error

	// Delete removes an object with background propagation. Deleting an
	// absent object (or an object whose kind is no longer served) is not
	// an error.
	Delete(ctx context.Context, obj *unstructured.Unstructured) error

	// Get fetches the live copy of an object.
	Get(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Exists reports whether the object is present on the cluster.
	Exists(ctx context.Context, obj *unstructured.Unstructured) (bool, error)

	// WaitAbsent polls until the object is gone or the timeout expires.
	WaitAbsent(ctx context.Context, obj *unstructured.Unstructured, timeout time.Duration) error

	// RefreshDiscovery rebuilds the REST mapper so kinds installed after
	// client construction (CRDs) become applyable.
	RefreshDiscovery() error

	// DeploymentAvailable reports whether the deployment's current
	// generation is fully rolled out and available.
	DeploymentAvailable(ctx context.Context, namespace, name string) (bool, string, error)

	// StatefulSetReady reports whether the statefulset's current
	// generation has all replicas ready.
	StatefulSetReady(ctx context.Context, namespace, name string) (bool, string, error)

	// PodsReady reports whether at least one pod matches the selector and
	// every match is Running and Ready.
	PodsReady(ctx context.Context, namespace, selector string) (bool, string, error)

	// EndpointsReady reports whether the service has at least one ready
	// endpoint address.
	EndpointsReady(ctx context.Context, namespace, service string) (bool, string, error)

	// CRDEstablished reports whether the named CRD exists and has the
	// Established condition.
	CRDEstablished(ctx context.Context, name string) (bool, string, error)

	// SecretMaterialized reports whether the secret exists and carries at
	// least one data key.
	SecretMaterialized(ctx context.Context, namespace, name string) (bool, string, error)

	// ApplicationSynced reports whether the Argo CD application is both
	// Synced and Healthy.
	ApplicationSynced(ctx context.Context, namespace, name string) (bool, string, error)
}

type client struct {
	clientset    kubernetes.Interface
	dynamic      dynamic.Interface
	discovery    discovery.DiscoveryInterface
	fieldManager string

	// mu guards mapper, which RefreshDiscovery swaps while apply workers read it.
	mu     sync.RWMutex
	mapper meta.RESTMapper
}

// LoadRESTConfig resolves a REST config from an explicit kubeconfig path, or
// from the standard loading rules (KUBECONFIG, ~/.kube/config) when the path
// is empty. An empty contextName selects the current context.
func LoadRESTConfig(kubeconfigPath, contextName string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config: %w", err)
	}
	return cfg, nil
}

// New creates a Client from a REST config. An empty fieldManager falls back
// to DefaultFieldManager.
func New(restConfig *rest.Config, fieldManager string) (Client, error) {
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}

	groupResources, err := restmapper.GetAPIGroupResources(discoveryClient)
	if err != nil {
		return nil, fmt.Errorf("failed to get API group resources: %w", err)
	}

	if fieldManager == "" {
		fieldManager = DefaultFieldManager
	}

	return &client{
		clientset:    clientset,
		dynamic:      dynamicClient,
		discovery:    discoveryClient,
		fieldManager: fieldManager,
		mapper:       restmapper.NewDiscoveryRESTMapper(groupResources),
	}, nil
}

// NewFromClients creates a Client from pre-built clients. Used by tests to
// inject fakes.
func NewFromClients(clientset kubernetes.Interface, dynamicClient dynamic.Interface, mapper meta.RESTMapper) Client {
	return &client{
		clientset:    clientset,
		dynamic:      dynamicClient,
		fieldManager: DefaultFieldManager,
		mapper:       mapper,
	}
}

func (c *client) RefreshDiscovery() error {
	if c.discovery == nil {
		return nil
	}

	groupResources, err := restmapper.GetAPIGroupResources(c.discovery)
	if err != nil {
		return fmt.Errorf("failed to refresh API discovery: %w", err)
	}

	c.mu.Lock()
	c.mapper = restmapper.NewDiscoveryRESTMapper(groupResources)
	c.mu.Unlock()
	return nil
}

// mapping resolves a GVK to its REST mapping. When the kind is unknown and a
// discovery client is available it refreshes once and retries, so CRDs
// installed earlier in the run become applyable without an explicit refresh.
func (c *client) mapping(gvk schema.GroupVersionKind) (*meta.RESTMapping, error) {
	c.mu.RLock()
	mapper := c.mapper
	c.mu.RUnlock()

	m, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err == nil {
		return m, nil
	}
	if !meta.IsNoMatchError(err) || c.discovery == nil {
		return nil, err
	}

	if refreshErr := c.RefreshDiscovery(); refreshErr != nil {
		return nil, refreshErr
	}

	c.mu.RLock()
	mapper = c.mapper
	c.mu.RUnlock()
	return mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
}
