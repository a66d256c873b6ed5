// Package labels provides consistent labeling for platform-managed
// Kubernetes resources.
//
// Every resource the orchestrator applies carries the same label set so
// that live state can be selected, inspected, and torn down by phase or
// by platform instance.
//
// Standard label keys use the data-platform.io domain prefix.
package labels

// Standard label keys for platform resources.
const (
	// KeyPartOf identifies which platform instance a resource belongs to.
	KeyPartOf = "data-platform.io/part-of"

	// KeyPhase identifies the provisioning phase that owns a resource.
	KeyPhase = "data-platform.io/phase"

	// KeyEnvironment carries the deployment environment (dev, staging, prod).
	KeyEnvironment = "data-platform.io/environment"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "data-platform.io/managed-by"
)

// ManagedBy values.
const (
	ManagedByCLI        = "ldpctl"
	ManagedByReconciler = "ldp-reconciler"
)

// Builder provides a fluent interface for building platform resource
// labels.
type Builder struct {
	labels map[string]string
}

// NewBuilder creates a label builder with the platform name pre-set.
func NewBuilder(platform string) *Builder {
	return &Builder{
		labels: map[string]string{
			KeyPartOf:    platform,
			KeyManagedBy: ManagedByCLI,
		},
	}
}

// WithPhase adds the owning-phase label.
func (b *Builder) WithPhase(phase string) *Builder {
	b.labels[KeyPhase] = phase
	return b
}

// WithEnvironment adds the environment label.
func (b *Builder) WithEnvironment(env string) *Builder {
	b.labels[KeyEnvironment] = env
	return b
}

// WithManagedBy sets who manages this resource.
func (b *Builder) WithManagedBy(manager string) *Builder {
	b.labels[KeyManagedBy] = manager
	return b
}

// Merge adds all labels from the provided map.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		b.labels[k] = v
	}
	return b
}

// Build returns a copy of the labels map.
func (b *Builder) Build() map[string]string {
	result := make(map[string]string, len(b.labels))
	for k, v := range b.labels {
		result[k] = v
	}
	return result
}

// Selector returns a label selector string for all resources of a
// platform instance.
func Selector(platform string) string {
	return KeyPartOf + "=" + platform
}

// SelectorForPhase returns a label selector string for the resources
// owned by one phase.
func SelectorForPhase(platform, phase string) string {
	return KeyPartOf + "=" + platform + "," + KeyPhase + "=" + phase
}
