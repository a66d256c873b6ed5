package catalog

import (
	"context"
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// metastoreDBPhase deploys the shared relational store backing the
// metastore and the workflow orchestrator's metadata database. The chart
// reads every password from the metastore consumer's destination Secret, so
// re-rendering never rotates credentials; that is why the phase depends on
// secrets-bootstrap.
func (b *Builder) metastoreDBPhase(ctx context.Context, bindings []secrets.Binding) (*orchestrate.Phase, error) {
	hive, ok := findBinding(bindings, ConsumerHiveMetastore)
	if !ok {
		return nil, fmt.Errorf("metastore-db: no %s consumer bound", ConsumerHiveMetastore)
	}

	descriptors, err := b.chartDescriptors(ctx, "postgresql", NamespaceMetastore, b.buildMetastoreDBValues(hive))
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseMetastoreDB, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("database rollout", orchestrate.TargetStatefulSet, NamespaceMetastore, "postgresql"),
	}

	return b.phase(PhaseMetastoreDB, "shared relational store",
		[]string{PhaseNamespaces, PhaseSecretsBootstrap}, store, checks), nil
}

// buildMetastoreDBValues points the chart at the synced credential Secret
// and provisions the orchestrator's metadata database alongside the
// metastore schema.
func (b *Builder) buildMetastoreDBValues(hive secrets.Binding) helm.Values {
	s := sizingFor(b.cfg.Environment())
	return helm.Values{
		"auth": helm.Values{
			"username":       metastoreUser,
			"database":       metastoreDatabase,
			"existingSecret": hive.Destination,
			"secretKeys": helm.Values{
				"adminPasswordKey": "postgres-password",
				"userPasswordKey":  "password",
			},
		},
		"primary": helm.Values{
			"persistence": helm.PersistenceValues(true, s.postgresStorage, ""),
			"resources":   s.resources(),
			"initdb": helm.Values{
				"scripts": helm.Values{
					"create_airflow_db.sql": fmt.Sprintf("CREATE DATABASE %s;", airflowDatabase),
				},
			},
		},
	}
}
