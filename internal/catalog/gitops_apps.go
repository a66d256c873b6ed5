package catalog

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
	"github.com/anhhoangdev/ldpctl/internal/util/naming"
)

// Repository directories the platform's declarative content lives in, the
// same layout the DAG git-sync tracks.
const (
	repoPathPipelines = "dag"
	repoPathAnalytics = "analytics"
)

// gitopsAppsPhase registers the platform's declarative content with the
// gitops controller: the pipeline definitions synced into the orchestrator
// namespace and, when a query gateway consumer is bound, the analytics
// models next to it. Without a repository URL there is nothing to register
// and the phase drops out of the plan.
func (b *Builder) gitopsAppsPhase(bindings []secrets.Binding) (*orchestrate.Phase, error) {
	if b.cfg.GitOps.RepoURL == "" {
		return nil, nil
	}

	platform := b.cfg.Platform.Name
	namespace := b.cfg.GitOps.Namespace

	apps := []descriptor.Descriptor{
		b.applicationDescriptor(naming.Application(platform, "pipelines"), repoPathPipelines, NamespaceAirflow),
	}
	if _, ok := findBinding(bindings, ConsumerKyuubi); ok {
		apps = append(apps,
			b.applicationDescriptor(naming.Application(platform, "analytics"), repoPathAnalytics, NamespaceKyuubi))
	}

	store, err := b.storeFor(PhaseGitOpsApps, apps)
	if err != nil {
		return nil, err
	}

	checks := make([]orchestrate.ReadinessCheck, 0, len(apps))
	for _, app := range apps {
		checks = append(checks,
			b.check(app.Name()+" synced", orchestrate.TargetApplication, namespace, app.Name()))
	}

	return b.phase(PhaseGitOpsApps, "declarative content registration",
		[]string{PhaseGitOps, PhaseSecretsBootstrap}, store, checks), nil
}

// applicationDescriptor builds one gitops Application tracking a directory
// of the configured repository, with automated sync, pruning, and
// self-healing.
func (b *Builder) applicationDescriptor(name, path, destNamespace string) descriptor.Descriptor {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "argoproj.io/v1alpha1",
		"kind":       "Application",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": b.cfg.GitOps.Namespace,
		},
		"spec": map[string]interface{}{
			"project": "default",
			"source": map[string]interface{}{
				"repoURL":        b.cfg.GitOps.RepoURL,
				"targetRevision": b.cfg.GitOps.Revision,
				"path":           path,
				"directory": map[string]interface{}{
					"recurse": true,
				},
			},
			"destination": map[string]interface{}{
				"server":    "https://kubernetes.default.svc",
				"namespace": destNamespace,
			},
			"syncPolicy": map[string]interface{}{
				"automated": map[string]interface{}{
					"prune":    true,
					"selfHeal": true,
				},
				"syncOptions": []interface{}{
					"CreateNamespace=false",
				},
			},
		},
	}}
	return descriptor.New(obj)
}
