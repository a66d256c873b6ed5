// Package descriptor holds the declarative definition of every resource the
// orchestrator manages. Payloads are opaque unstructured objects; the store
// keys them by a stable identity so repeated applies converge instead of
// duplicating.
package descriptor

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Key is the stable identity of a resource: group, version, kind, namespace
// and name. It is what makes create-or-update idempotent across runs.
type Key struct {
	Group     string
	Version   string
	Kind      string
	Namespace string
	Name      string
}

func (k Key) String() string {
	group := k.Group
	if group == "" {
		group = "core"
	}
	namespace := k.Namespace
	if namespace == "" {
		namespace = "-"
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", group, k.Version, k.Kind, namespace, k.Name)
}

// Descriptor wraps one declarative resource payload.
type Descriptor struct {
	Object *unstructured.Unstructured
}

// New wraps an unstructured object as a Descriptor.
func New(obj *unstructured.Unstructured) Descriptor {
	return Descriptor{Object: obj}
}

// Key returns the descriptor's stable identity.
func (d Descriptor) Key() Key {
	gvk := d.Object.GroupVersionKind()
	return Key{
		Group:     gvk.Group,
		Version:   gvk.Version,
		Kind:      gvk.Kind,
		Namespace: d.Object.GetNamespace(),
		Name:      d.Object.GetName(),
	}
}

// GVK returns the payload's group/version/kind.
func (d Descriptor) GVK() schema.GroupVersionKind {
	return d.Object.GroupVersionKind()
}

// Name returns the payload's name.
func (d Descriptor) Name() string {
	return d.Object.GetName()
}

// Namespace returns the payload's namespace, empty for cluster-scoped kinds.
func (d Descriptor) Namespace() string {
	return d.Object.GetNamespace()
}

// Labeled returns a deep copy of the descriptor with the given labels merged
// over any already present.
func (d Descriptor) Labeled(extra map[string]string) Descriptor {
	obj := d.Object.DeepCopy()

	merged := obj.GetLabels()
	if merged == nil {
		merged = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		merged[k] = v
	}
	obj.SetLabels(merged)

	return Descriptor{Object: obj}
}

// validate rejects payloads the platform could never identify.
func (d Descriptor) validate() error {
	if d.Object == nil || len(d.Object.Object) == 0 {
		return fmt.Errorf("descriptor has no payload")
	}
	if d.Object.GetKind() == "" {
		return fmt.Errorf("descriptor %q has no kind", d.Object.GetName())
	}
	if d.Object.GetName() == "" {
		return fmt.Errorf("descriptor of kind %s has no name", d.Object.GetKind())
	}
	return nil
}

// Store is an ordered collection of descriptors keyed by identity.
// Registration order is preserved; re-registering an existing key replaces
// the payload in place without changing its position.
type Store struct {
	order []Key
	items map[Key]Descriptor
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[Key]Descriptor)}
}

// Add registers a descriptor. Invalid payloads (no kind, no name) fail fast.
func (s *Store) Add(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	key := d.Key()
	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = d
	return nil
}

// Get looks a descriptor up by identity.
func (s *Store) Get(key Key) (Descriptor, bool) {
	d, ok := s.items[key]
	return d, ok
}

// List returns all descriptors in registration order.
func (s *Store) List() []Descriptor {
	out := make([]Descriptor, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key])
	}
	return out
}

// Len returns the number of registered descriptors.
func (s *Store) Len() int {
	return len(s.order)
}
