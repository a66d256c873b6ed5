// Package secrets bootstraps the platform's secret distribution: it
// registers cluster trust with Vault, provisions per-consumer policies and
// roles, declares KV material and sync bindings, and confirms the material
// lands in cluster Secrets.
package secrets

import (
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/util/naming"
)

// Access is the capability level a consumer gets on its KV path.
type Access string

const (
	// AccessRead grants read-only capabilities on the path.
	AccessRead Access = "read"
	// AccessWrite grants create and update on top of read.
	AccessWrite Access = "write"
)

// Binding declares one consumer's secret flow: which KV path it owns, which
// service account may read it, and which cluster Secret the material syncs
// into.
type Binding struct {
	// Consumer names the platform service, e.g. "airflow".
	Consumer string
	// Namespace is where the consumer and its destination Secret live.
	Namespace string
	// ServiceAccount is the identity bound to the Vault role.
	ServiceAccount string
	// Path is the KV path under the mount, e.g. "airflow".
	Path string
	// Destination is the cluster Secret the material syncs into.
	Destination string
	// RefreshInterval is how often the sync operator re-reads Vault.
	RefreshInterval time.Duration
	// Access selects the policy capability level.
	Access Access
}

// Validate rejects bindings the coordinator could not provision.
func (b Binding) Validate() error {
	if b.Consumer == "" {
		return fmt.Errorf("binding has no consumer name")
	}
	if b.Namespace == "" {
		return fmt.Errorf("binding %s has no namespace", b.Consumer)
	}
	if b.ServiceAccount == "" {
		return fmt.Errorf("binding %s has no service account", b.Consumer)
	}
	if b.Path == "" {
		return fmt.Errorf("binding %s has no secret path", b.Consumer)
	}
	if b.Destination == "" {
		return fmt.Errorf("binding %s has no destination secret", b.Consumer)
	}
	switch b.Access {
	case AccessRead, AccessWrite:
	default:
		return fmt.Errorf("binding %s has invalid access %q", b.Consumer, b.Access)
	}
	return nil
}

// PolicyName returns the Vault policy name for this binding.
func (b Binding) PolicyName() string {
	return naming.VaultPolicy(b.Consumer, string(b.Access))
}

// RoleName returns the Kubernetes auth role name for this binding's consumer.
func (b Binding) RoleName() string {
	return naming.VaultRole(b.Consumer)
}

// AuthName returns the name of the VaultAuth object this binding's sync
// payloads authenticate through.
func (b Binding) AuthName() string {
	return naming.VaultAuth(b.Consumer)
}

// PolicyRules renders the HCL policy granting this binding's access level on
// its KV v2 path.
func (b Binding) PolicyRules(mount string) string {
	data := fmt.Sprintf("%s/data/%s", mount, b.Path)
	metadata := fmt.Sprintf("%s/metadata/%s", mount, b.Path)

	capabilities := `["read"]`
	if b.Access == AccessWrite {
		capabilities = `["create", "update", "read"]`
	}
	return fmt.Sprintf("path %q {\n  capabilities = %s\n}\npath %q {\n  capabilities = [\"read\", \"list\"]\n}\n",
		data, capabilities, metadata)
}

// Descriptor builds the declarative sync payload for this binding: a
// VaultStaticSecret object the secrets operator reconciles into the
// destination Secret. Declaring moves no material; the operator does.
func (b Binding) Descriptor(mount, authRef string) descriptor.Descriptor {
	refresh := b.RefreshInterval
	if refresh <= 0 {
		refresh = time.Minute
	}

	spec := map[string]interface{}{
		"type":         "kv-v2",
		"mount":        mount,
		"path":         b.Path,
		"refreshAfter": refresh.String(),
		"destination": map[string]interface{}{
			"name":   b.Destination,
			"create": true,
		},
	}
	if authRef != "" {
		spec["vaultAuthRef"] = authRef
	}

	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "secrets.hashicorp.com/v1beta1",
		"kind":       "VaultStaticSecret",
		"metadata": map[string]interface{}{
			"name":      b.Destination,
			"namespace": b.Namespace,
		},
		"spec": spec,
	}}
	return descriptor.New(obj)
}

// AuthDescriptor builds the VaultAuth object the sync operator logs in with
// on this binding's behalf: a kubernetes-method login using the consumer's
// service account against the consumer's Vault role.
func (b Binding) AuthDescriptor(authMount, connectionRef string) descriptor.Descriptor {
	kubernetes := map[string]interface{}{
		"role":           b.RoleName(),
		"serviceAccount": b.ServiceAccount,
	}
	spec := map[string]interface{}{
		"method":     "kubernetes",
		"mount":      authMount,
		"kubernetes": kubernetes,
	}
	if connectionRef != "" {
		spec["vaultConnectionRef"] = connectionRef
	}

	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "secrets.hashicorp.com/v1beta1",
		"kind":       "VaultAuth",
		"metadata": map[string]interface{}{
			"name":      b.AuthName(),
			"namespace": b.Namespace,
		},
		"spec": spec,
	}}
	return descriptor.New(obj)
}

// ConnectionDescriptor builds the VaultConnection the consumer auths point
// at. One per platform; consumer auths reference it cross-namespace as
// "<namespace>/<name>".
func ConnectionDescriptor(name, namespace, address string) descriptor.Descriptor {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "secrets.hashicorp.com/v1beta1",
		"kind":       "VaultConnection",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"address": address,
		},
	}}
	return descriptor.New(obj)
}

// ValidateBindings checks every binding and rejects duplicate destinations,
// which would make two sync objects fight over one Secret.
func ValidateBindings(bindings []Binding) error {
	seen := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return err
		}
		key := b.Namespace + "/" + b.Destination
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("bindings %s and %s share destination secret %s", prev, b.Consumer, key)
		}
		seen[key] = b.Consumer
	}
	return nil
}
