package testing

import (
	"context"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

// PlatformFixture provides a pre-configured mock cluster for common test
// scenarios. Detail strings mirror what the real client reports so rendered
// status output looks the same in tests as against a live cluster.
type PlatformFixture struct {
	mock *kube.MockClient
}

// NewPlatformFixture creates a new platform fixture.
func NewPlatformFixture() *PlatformFixture {
	return &PlatformFixture{
		mock: &kube.MockClient{},
	}
}

// Mock returns the underlying MockClient for custom configuration.
func (f *PlatformFixture) Mock() *kube.MockClient {
	return f.mock
}

// HealthyPlatform configures the mock as a fully deployed platform: every
// object exists and every readiness inspection passes.
// Returns the same mock for chaining.
func (f *PlatformFixture) HealthyPlatform() *kube.MockClient {
	f.mock.ExistsFunc = func(_ context.Context, _ *unstructured.Unstructured) (bool, error) {
		return true, nil
	}
	f.mock.DeploymentAvailableFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "2/2 replicas available", nil
	}
	f.mock.StatefulSetReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "3/3 replicas ready", nil
	}
	f.mock.PodsReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "2/2 pods ready", nil
	}
	f.mock.EndpointsReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "2 endpoint addresses", nil
	}
	f.mock.CRDEstablishedFunc = func(_ context.Context, _ string) (bool, string, error) {
		return true, "established", nil
	}
	f.mock.SecretMaterializedFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "4 data keys", nil
	}
	f.mock.ApplicationSyncedFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return true, "synced and healthy", nil
	}
	return f.mock
}

// EmptyCluster configures the mock as a cluster with nothing deployed:
// objects are absent and every inspection reports not found.
func (f *PlatformFixture) EmptyCluster() *kube.MockClient {
	f.mock.ExistsFunc = func(_ context.Context, _ *unstructured.Unstructured) (bool, error) {
		return false, nil
	}
	f.mock.GetFunc = func(_ context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
		resource := strings.ToLower(obj.GetKind()) + "s"
		return nil, apierrors.NewNotFound(schema.GroupResource{Resource: resource}, obj.GetName())
	}
	f.mock.DeploymentAvailableFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "deployment not found", nil
	}
	f.mock.StatefulSetReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "statefulset not found", nil
	}
	f.mock.PodsReadyFunc = func(_ context.Context, _, selector string) (bool, string, error) {
		return false, "no pods match " + selector, nil
	}
	f.mock.EndpointsReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "endpoints not found", nil
	}
	f.mock.CRDEstablishedFunc = func(_ context.Context, _ string) (bool, string, error) {
		return false, "crd not found", nil
	}
	f.mock.SecretMaterializedFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "secret not found", nil
	}
	f.mock.ApplicationSyncedFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "application not found", nil
	}
	return f.mock
}

// DegradedComponent configures a healthy platform where one workload never
// becomes ready: deployment and statefulset inspections matching the given
// namespace and name report zero ready replicas.
func (f *PlatformFixture) DegradedComponent(namespace, name string) *kube.MockClient {
	f.HealthyPlatform()
	f.mock.DeploymentAvailableFunc = func(_ context.Context, ns, n string) (bool, string, error) {
		if ns == namespace && n == name {
			return false, "0/2 replicas available", nil
		}
		return true, "2/2 replicas available", nil
	}
	f.mock.StatefulSetReadyFunc = func(_ context.Context, ns, n string) (bool, string, error) {
		if ns == namespace && n == name {
			return false, "0/3 replicas ready", nil
		}
		return true, "3/3 replicas ready", nil
	}
	return f.mock
}

// WithApplyError configures a healthy platform whose applies fail with err.
func (f *PlatformFixture) WithApplyError(err error) *kube.MockClient {
	f.HealthyPlatform()
	f.mock.ApplyFunc = func(_ context.Context, _ *unstructured.Unstructured) error {
		return err
	}
	return f.mock
}
