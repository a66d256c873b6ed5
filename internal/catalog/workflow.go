package catalog

import (
	"context"
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// workflowPhase deploys the workflow orchestrator against the shared
// relational store. Every credential the chart consumes (metadata
// connection, fernet key, webserver signing key) comes from the consumer's
// synced Secret, so re-rendering the chart never rotates anything.
func (b *Builder) workflowPhase(ctx context.Context, bindings []secrets.Binding) (*orchestrate.Phase, error) {
	airflow, ok := findBinding(bindings, ConsumerAirflow)
	if !ok {
		return nil, fmt.Errorf("workflow-orchestrator: no %s consumer bound", ConsumerAirflow)
	}

	descriptors, err := b.chartDescriptors(ctx, "airflow", NamespaceAirflow, b.buildWorkflowValues(airflow))
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseWorkflow, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("scheduler rollout", orchestrate.TargetDeployment, NamespaceAirflow, "airflow-scheduler"),
		b.check("webserver rollout", orchestrate.TargetDeployment, NamespaceAirflow, "airflow-webserver"),
		b.optionalCheck("triggerer rollout", orchestrate.TargetStatefulSet, NamespaceAirflow, "airflow-triggerer"),
	}

	return b.phase(PhaseWorkflow, "workflow orchestrator",
		[]string{PhaseMetastoreDB, PhaseObjectStore, PhaseSecretsBootstrap}, store, checks), nil
}

// buildWorkflowValues configures the orchestrator chart. The bundled
// database stays off in favor of the shared store, helm-hook jobs render as
// plain Jobs so a template-only apply still runs migrations, and DAGs
// git-sync from the configured repository when one is registered.
func (b *Builder) buildWorkflowValues(airflow secrets.Binding) helm.Values {
	s := sizingFor(b.cfg.Environment())
	account := helm.ServiceAccountValues(airflow.ServiceAccount, false)

	values := helm.Values{
		"executor":   "LocalExecutor",
		"postgresql": helm.Values{"enabled": false},
		"redis":      helm.Values{"enabled": false},
		"data": helm.Values{
			"metadataSecretName": airflow.Destination,
		},
		"fernetKeySecretName":          airflow.Destination,
		"webserverSecretKeySecretName": airflow.Destination,
		"createUserJob": helm.Values{
			"useHelmHooks":   false,
			"applyCustomEnv": false,
		},
		"migrateDatabaseJob": helm.Values{
			"useHelmHooks":   false,
			"applyCustomEnv": false,
		},
		"scheduler": helm.Values{
			"serviceAccount": account,
			"resources":      s.resources(),
		},
		"webserver": helm.Values{
			"serviceAccount": account,
			"resources":      s.resources(),
		},
		"triggerer": helm.Values{
			"serviceAccount": account,
		},
	}

	if b.cfg.GitOps.RepoURL != "" {
		values["dags"] = helm.Values{
			"gitSync": helm.Values{
				"enabled": true,
				"repo":    b.cfg.GitOps.RepoURL,
				"branch":  b.cfg.GitOps.Revision,
				"subPath": repoPathPipelines,
			},
		}
	}

	return values
}
