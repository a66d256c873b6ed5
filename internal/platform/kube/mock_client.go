package kube

import (
	"context"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// MockClient is a mock implementation of Client. Unset funcs fall back to a
// healthy cluster: applies succeed, objects exist, every check passes. All
// calls are recorded so tests can assert on apply and delete traffic.
type MockClient struct {
	ApplyFunc            func(ctx context.Context, obj *unstructured.Unstructured) error
	DeleteFunc           func(ctx context.Context, obj *unstructured.Unstructured) error
	GetFunc              func(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	ExistsFunc           func(ctx context.Context, obj *unstructured.Unstructured) (bool, error)
	WaitAbsentFunc       func(ctx context.Context, obj *unstructured.Unstructured, timeout time.Duration) error
	RefreshDiscoveryFunc func() error

	// Readiness inspections
	DeploymentAvailableFunc func(ctx context.Context, namespace, name string) (bool, string, error)
	StatefulSetReadyFunc    func(ctx context.Context, namespace, name string) (bool, string, error)
	PodsReadyFunc           func(ctx context.Context, namespace, selector string) (bool, string, error)
	EndpointsReadyFunc      func(ctx context.Context, namespace, service string) (bool, string, error)
	CRDEstablishedFunc      func(ctx context.Context, name string) (bool, string, error)
	SecretMaterializedFunc  func(ctx context.Context, namespace, name string) (bool, string, error)
	ApplicationSyncedFunc   func(ctx context.Context, namespace, name string) (bool, string, error)

	mu      sync.Mutex
	applied []string
	deleted []string
	waited  []string
}

// Ensure interface compliance
var _ Client = (*MockClient)(nil)

func objectKey(obj *unstructured.Unstructured) string {
	if ns := obj.GetNamespace(); ns != "" {
		return obj.GetKind() + "/" + ns + "/" + obj.GetName()
	}
	return obj.GetKind() + "/" + obj.GetName()
}

// Applied returns the keys of every object passed to Apply, in call order.
func (m *MockClient) Applied() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.applied))
	copy(out, m.applied)
	return out
}

// Deleted returns the keys of every object passed to Delete, in call order.
func (m *MockClient) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// Waited returns the keys of every object passed to WaitAbsent, in call order.
func (m *MockClient) Waited() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.waited))
	copy(out, m.waited)
	return out
}

// ApplyCount returns how many times the given key was applied.
func (m *MockClient) ApplyCount(key string) int {
	n := 0
	for _, k := range m.Applied() {
		if k == key {
			n++
		}
	}
	return n
}

// DeleteCount returns how many times the given key was deleted.
func (m *MockClient) DeleteCount(key string) int {
	n := 0
	for _, k := range m.Deleted() {
		if k == key {
			n++
		}
	}
	return n
}

// Apply mocks Server-Side Apply.
func (m *MockClient) Apply(ctx context.Context, obj *unstructured.Unstructured) error {
	m.mu.Lock()
	m.applied = append(m.applied, objectKey(obj))
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, obj)
	}
	return nil
}

// Delete mocks object deletion.
func (m *MockClient) Delete(ctx context.Context, obj *unstructured.Unstructured) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, objectKey(obj))
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, obj)
	}
	return nil
}

// Get mocks fetching the live object.
func (m *MockClient) Get(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, obj)
	}
	return obj.DeepCopy(), nil
}

// Exists mocks the presence check.
func (m *MockClient) Exists(ctx context.Context, obj *unstructured.Unstructured) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, obj)
	}
	return true, nil
}

// WaitAbsent mocks waiting for deletion to finish.
func (m *MockClient) WaitAbsent(ctx context.Context, obj *unstructured.Unstructured, timeout time.Duration) error {
	m.mu.Lock()
	m.waited = append(m.waited, objectKey(obj))
	m.mu.Unlock()
	if m.WaitAbsentFunc != nil {
		return m.WaitAbsentFunc(ctx, obj, timeout)
	}
	return nil
}

// RefreshDiscovery mocks the REST mapper refresh.
func (m *MockClient) RefreshDiscovery() error {
	if m.RefreshDiscoveryFunc != nil {
		return m.RefreshDiscoveryFunc()
	}
	return nil
}

// DeploymentAvailable mocks the deployment rollout check.
func (m *MockClient) DeploymentAvailable(ctx context.Context, namespace, name string) (bool, string, error) {
	if m.DeploymentAvailableFunc != nil {
		return m.DeploymentAvailableFunc(ctx, namespace, name)
	}
	return true, "available", nil
}

// StatefulSetReady mocks the statefulset rollout check.
func (m *MockClient) StatefulSetReady(ctx context.Context, namespace, name string) (bool, string, error) {
	if m.StatefulSetReadyFunc != nil {
		return m.StatefulSetReadyFunc(ctx, namespace, name)
	}
	return true, "ready", nil
}

// PodsReady mocks the pod selector check.
func (m *MockClient) PodsReady(ctx context.Context, namespace, selector string) (bool, string, error) {
	if m.PodsReadyFunc != nil {
		return m.PodsReadyFunc(ctx, namespace, selector)
	}
	return true, "ready", nil
}

// EndpointsReady mocks the service endpoint check.
func (m *MockClient) EndpointsReady(ctx context.Context, namespace, service string) (bool, string, error) {
	if m.EndpointsReadyFunc != nil {
		return m.EndpointsReadyFunc(ctx, namespace, service)
	}
	return true, "1 endpoint addresses", nil
}

// CRDEstablished mocks the CRD condition check.
func (m *MockClient) CRDEstablished(ctx context.Context, name string) (bool, string, error) {
	if m.CRDEstablishedFunc != nil {
		return m.CRDEstablishedFunc(ctx, name)
	}
	return true, "established", nil
}

// SecretMaterialized mocks the synced-secret check.
func (m *MockClient) SecretMaterialized(ctx context.Context, namespace, name string) (bool, string, error) {
	if m.SecretMaterializedFunc != nil {
		return m.SecretMaterializedFunc(ctx, namespace, name)
	}
	return true, "1 data keys", nil
}

// ApplicationSynced mocks the Argo CD application check.
func (m *MockClient) ApplicationSynced(ctx context.Context, namespace, name string) (bool, string, error) {
	if m.ApplicationSyncedFunc != nil {
		return m.ApplicationSyncedFunc(ctx, namespace, name)
	}
	return true, "synced and healthy", nil
}
