package catalog

import (
	"context"
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// metastoreURI is the thrift address of the catalog service the query
// engines resolve tables against.
const metastoreURI = "thrift://hive-metastore.metastore.svc.cluster.local:9083"

// queryGatewayPhase deploys the SQL gateway. Engines it spawns inherit the
// metastore and warehouse wiring through spark defaults; the warehouse
// credentials arrive as environment variables from the synced Secret. The
// phase drops out of the plan when no query gateway consumer is bound.
func (b *Builder) queryGatewayPhase(ctx context.Context, bindings []secrets.Binding) (*orchestrate.Phase, error) {
	kyuubi, ok := findBinding(bindings, ConsumerKyuubi)
	if !ok {
		return nil, nil
	}

	descriptors, err := b.chartDescriptors(ctx, "kyuubi", NamespaceKyuubi, b.buildQueryGatewayValues(kyuubi))
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseQueryGateway, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("gateway rollout", orchestrate.TargetDeployment, NamespaceKyuubi, "kyuubi"),
		b.check("thrift endpoints", orchestrate.TargetEndpoints, NamespaceKyuubi, "kyuubi-thrift-binary"),
	}

	return b.phase(PhaseQueryGateway, "sql query gateway",
		[]string{PhaseHiveMetastore, PhaseSecretsBootstrap}, store, checks), nil
}

// buildQueryGatewayValues wires the gateway at the metastore and the
// warehouse. Spark defaults flow into every engine the gateway launches.
func (b *Builder) buildQueryGatewayValues(kyuubi secrets.Binding) helm.Values {
	s := sizingFor(b.cfg.Environment())

	sparkDefaults := fmt.Sprintf(`spark.sql.catalogImplementation=hive
spark.hadoop.hive.metastore.uris=%s
spark.hadoop.fs.s3a.endpoint=%s
spark.hadoop.fs.s3a.path.style.access=true
spark.hadoop.fs.s3a.connection.ssl.enabled=false
spark.sql.warehouse.dir=s3a://%s/
`, metastoreURI, b.cfg.Warehouse.Endpoint, primaryBucket(b.cfg.Warehouse.Buckets))

	replicas := 1
	if s.ha {
		replicas = 2
	}

	return helm.Values{
		"replicaCount":   replicas,
		"serviceAccount": helm.ServiceAccountValues(kyuubi.ServiceAccount, false),
		"resources":      s.resources(),
		"envFrom": []helm.Values{
			{"secretRef": helm.Values{"name": kyuubi.Destination}},
		},
		"kyuubiConf": helm.Values{
			"kyuubiDefaults": fmt.Sprintf("kyuubi.frontend.bind.port=10009\nkyuubi.engine.share.level=USER\nkyuubi.session.engine.idle.timeout=PT30M\nkyuubi.ha.namespace=%s\n", b.cfg.Platform.Name),
		},
		"sparkConf": helm.Values{
			"sparkDefaults": sparkDefaults,
		},
	}
}
