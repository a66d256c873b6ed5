package catalog

import (
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// namespacesPhase creates every namespace the platform occupies. The fixed
// service namespaces ship as an embedded manifest; the gitops namespace and
// the consumer namespaces are configurable, so they are added
// programmatically and deduplicated against the embedded set.
func (b *Builder) namespacesPhase(bindings []secrets.Binding) (*orchestrate.Phase, error) {
	descriptors, err := embeddedDescriptors("namespaces")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		seen[d.Name()] = true
	}

	extra := []string{b.cfg.GitOps.Namespace}
	for _, bind := range bindings {
		extra = append(extra, bind.Namespace)
	}
	for _, name := range extra {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		descriptors = append(descriptors, namespaceDescriptor(name))
	}

	store, err := b.storeFor(PhaseNamespaces, descriptors)
	if err != nil {
		return nil, err
	}

	return b.phase(PhaseNamespaces, "platform namespaces", nil, store, nil), nil
}
