package catalog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// gitopsPhase deploys the gitops controller. The chart's own credential
// generation is disabled because template rendering would mint a fresh
// admin hash and redis password on every run; the pre-apply hook provisions
// those secrets once and leaves them alone afterwards.
func (b *Builder) gitopsPhase(ctx context.Context) (*orchestrate.Phase, error) {
	namespace := b.cfg.GitOps.Namespace

	descriptors, err := b.chartDescriptors(ctx, "argo-cd", namespace, b.buildGitOpsValues())
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseGitOps, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("api server rollout", orchestrate.TargetDeployment, namespace, "argo-cd-server"),
		b.check("repo server rollout", orchestrate.TargetDeployment, namespace, "argo-cd-repo-server"),
		b.check("application crd", orchestrate.TargetCRD, "", "applications.argoproj.io"),
	}

	phase := b.phase(PhaseGitOps, "gitops controller",
		[]string{PhaseNamespaces}, store, checks)
	phase.PreApply = b.gitopsBootstrapHook(namespace)
	return phase, nil
}

// buildGitOpsValues configures the controller chart. Dex is off (no SSO on
// a local platform), the server runs insecure behind the ingress, and
// production gets the HA redis topology.
func (b *Builder) buildGitOpsValues() helm.Values {
	s := sizingFor(b.cfg.Environment())

	values := helm.Values{
		"crds": helm.Values{"install": true},
		"configs": helm.Values{
			"secret": helm.Values{"createSecret": false},
			"params": helm.Values{"server.insecure": true},
		},
		"dex":             helm.Values{"enabled": false},
		"redisSecretInit": helm.Values{"enabled": false},
		"controller":      helm.Values{"resources": s.resources()},
		"server":          helm.Values{"resources": s.resources()},
		"repoServer":      helm.Values{"resources": s.resources()},
		"applicationSet":  helm.Values{"enabled": true},
		"notifications":   helm.Values{"enabled": true},
	}

	if s.ha {
		values["redis-ha"] = helm.Values{
			"enabled": true,
			"auth":    false,
		}
		values["redis"] = helm.Values{"enabled": false}
		values["server"].(helm.Values)["replicas"] = 2
		values["repoServer"].(helm.Values)["replicas"] = 2
	} else {
		values["redis-ha"] = helm.Values{"enabled": false}
	}

	return values
}

// gitopsBootstrapHook provisions the controller's credential secrets when
// absent: the admin password (bcrypt hash in argocd-secret, plaintext in
// the conventional initial-admin secret), the server signing key, and the
// redis password. Existing secrets are never touched, so credentials
// survive redeploys.
func (b *Builder) gitopsBootstrapHook(namespace string) orchestrate.HookFunc {
	return func(ctx context.Context) error {
		lbls := b.phaseLabels(PhaseGitOps)

		exists, err := b.deps.Kube.Exists(ctx, secretRef(namespace, "argocd-secret"))
		if err != nil {
			return fmt.Errorf("inspect argocd-secret: %w", err)
		}
		if !exists {
			adminPassword, err := secrets.GeneratePassword(16)
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			signingKey, err := secrets.GeneratePassword(32)
			if err != nil {
				return err
			}

			if err := b.applySecret(ctx, namespace, "argocd-secret", map[string]string{
				"admin.password":      string(hash),
				"admin.passwordMtime": time.Now().UTC().Format(time.RFC3339),
				"server.secretkey":    signingKey,
			}, lbls); err != nil {
				return err
			}
			if err := b.applySecret(ctx, namespace, "argocd-initial-admin-secret", map[string]string{
				"password": adminPassword,
			}, lbls); err != nil {
				return err
			}
		}

		exists, err = b.deps.Kube.Exists(ctx, secretRef(namespace, "argocd-redis"))
		if err != nil {
			return fmt.Errorf("inspect argocd-redis: %w", err)
		}
		if !exists {
			redisPassword, err := secrets.GeneratePassword(24)
			if err != nil {
				return err
			}
			if err := b.applySecret(ctx, namespace, "argocd-redis", map[string]string{
				"auth": redisPassword,
			}, lbls); err != nil {
				return err
			}
		}

		return nil
	}
}

// applySecret applies one labeled Secret with the standard retry policy.
func (b *Builder) applySecret(ctx context.Context, namespace, name string, data map[string]string, lbls map[string]string) error {
	d := secretDescriptor(namespace, name, data).Labeled(lbls)
	err := retry.Do(ctx, func() error {
		return b.deps.Kube.Apply(ctx, d.Object)
	}, retry.WithPolicy(b.retryPolicy()), retry.WithClassifier(kube.Classify))
	if err != nil {
		return fmt.Errorf("apply secret %s/%s: %w", namespace, name, err)
	}
	return nil
}
