package catalog

import (
	"context"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// secretsEnginePhase deploys the Vault server and the secret sync operator
// into the vault namespace. The phase is ready once the server answers, the
// operator controller is rolled out, and the sync CRDs are established, so
// the bootstrap phase can apply its custom resources without discovery
// failures.
func (b *Builder) secretsEnginePhase(ctx context.Context) (*orchestrate.Phase, error) {
	descriptors, err := b.chartDescriptors(ctx, "vault", NamespaceVault, b.buildVaultValues())
	if err != nil {
		return nil, err
	}

	operator, err := b.chartDescriptors(ctx, "vault-secrets-operator", NamespaceVault, b.buildSyncOperatorValues())
	if err != nil {
		return nil, err
	}
	descriptors = append(descriptors, operator...)

	store, err := b.storeFor(PhaseSecretsEngine, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("vault server", orchestrate.TargetStatefulSet, NamespaceVault, "vault"),
		b.check("vault endpoints", orchestrate.TargetEndpoints, NamespaceVault, "vault"),
		b.check("sync operator rollout", orchestrate.TargetDeployment, NamespaceVault, "vault-secrets-operator-controller-manager"),
		b.check("connection crd", orchestrate.TargetCRD, "", "vaultconnections.secrets.hashicorp.com"),
		b.check("auth crd", orchestrate.TargetCRD, "", "vaultauths.secrets.hashicorp.com"),
		b.check("static secret crd", orchestrate.TargetCRD, "", "vaultstaticsecrets.secrets.hashicorp.com"),
	}

	return b.phase(PhaseSecretsEngine, "secrets engine and sync operator",
		[]string{PhaseNamespaces}, store, checks), nil
}

// buildVaultValues sizes the Vault server per environment. Dev and staging
// run dev mode: in-memory storage, auto-unsealed, the chart's default root
// token. Production runs standalone with persistent storage; init and
// unseal happen out of band before the bootstrap phase can proceed.
func (b *Builder) buildVaultValues() helm.Values {
	s := sizingFor(b.cfg.Environment())

	server := helm.Values{
		"resources": s.resources(),
	}
	if s.ha {
		server["standalone"] = helm.Values{"enabled": true}
		server["dataStorage"] = helm.Values{
			"enabled": true,
			"size":    s.vaultStorage,
		}
	} else {
		server["dev"] = helm.Values{"enabled": true}
	}

	return helm.Values{
		"injector": helm.Values{"enabled": false},
		"server":   server,
	}
}

// buildSyncOperatorValues configures the sync operator. The chart's default
// in-cluster connection is disabled: the bootstrap phase declares its own
// connection object pointing at the configured address.
func (b *Builder) buildSyncOperatorValues() helm.Values {
	return helm.Values{
		"defaultVaultConnection": helm.Values{"enabled": false},
		"controller": helm.Values{
			"manager": helm.Values{
				"resources": helm.ResourceProfile("100m", "128Mi", "500m", "256Mi"),
			},
		},
	}
}
