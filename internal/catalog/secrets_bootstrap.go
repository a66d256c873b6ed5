package catalog

import (
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// secretsBootstrapPhase registers the platform's trust topology and
// distributes credential material. The coordinator's state machine runs as
// the pre-apply hook (engine mount, policies, roles, seeds); the phase then
// applies the connection, auth, and sync objects plus one ServiceAccount per
// consumer, and completes once every destination Secret materializes.
//
// The ServiceAccounts are created here rather than by the consumer charts:
// the sync operator authenticates as them immediately, while the charts
// arrive phases later. Each chart is told to reuse the existing account.
func (b *Builder) secretsBootstrapPhase(coordinator *secrets.Coordinator, bindings []secrets.Binding) (*orchestrate.Phase, error) {
	descriptors := make([]descriptor.Descriptor, 0, 3*len(bindings)+1)

	seen := make(map[string]bool, len(bindings))
	for _, bind := range bindings {
		key := bind.Namespace + "/" + bind.ServiceAccount
		if seen[key] {
			continue
		}
		seen[key] = true
		descriptors = append(descriptors, serviceAccountDescriptor(bind.Namespace, bind.ServiceAccount))
	}
	descriptors = append(descriptors, coordinator.BindingDescriptors()...)

	store, err := b.storeFor(PhaseSecretsBootstrap, descriptors)
	if err != nil {
		return nil, err
	}

	checks := make([]orchestrate.ReadinessCheck, 0, len(bindings))
	for _, bind := range bindings {
		checks = append(checks, orchestrate.ReadinessCheck{
			Name:      fmt.Sprintf("%s credentials", bind.Consumer),
			Target:    orchestrate.TargetSecret,
			Namespace: bind.Namespace,
			Ref:       bind.Destination,
			Timeout:   b.timeouts.SecretSync,
			Required:  true,
		})
	}

	phase := b.phase(PhaseSecretsBootstrap, "trust registration and secret distribution",
		[]string{PhaseSecretsEngine}, store, checks)
	phase.PreApply = coordinator.Run
	phase.PostReady = coordinator.Synchronize
	return phase, nil
}
