package catalog

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// hiveSiteTemplate is the metastore's site configuration. The JDBC
// connection and warehouse root are fixed by convention; the s3a endpoint
// comes from the configuration. The database password stays out of the
// file: the deployment injects it from the synced Secret.
const hiveSiteTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<configuration>
  <property>
    <name>javax.jdo.option.ConnectionURL</name>
    <value>jdbc:postgresql://%s/%s</value>
  </property>
  <property>
    <name>javax.jdo.option.ConnectionDriverName</name>
    <value>org.postgresql.Driver</value>
  </property>
  <property>
    <name>javax.jdo.option.ConnectionUserName</name>
    <value>%s</value>
  </property>
  <property>
    <name>hive.metastore.warehouse.dir</name>
    <value>%s</value>
  </property>
  <property>
    <name>fs.s3a.endpoint</name>
    <value>%s</value>
  </property>
  <property>
    <name>fs.s3a.path.style.access</name>
    <value>true</value>
  </property>
  <property>
    <name>fs.s3a.connection.ssl.enabled</name>
    <value>false</value>
  </property>
  <property>
    <name>fs.s3a.aws.credentials.provider</name>
    <value>com.amazonaws.auth.EnvironmentVariableCredentialsProvider</value>
  </property>
</configuration>
`

// hiveMetastorePhase deploys the catalog service: an embedded Deployment
// and Service plus a generated site ConfigMap. The workload authenticates
// to the database with the password synced into its destination Secret and
// to the object store with the warehouse keys seeded next to it.
func (b *Builder) hiveMetastorePhase(bindings []secrets.Binding) (*orchestrate.Phase, error) {
	if _, ok := findBinding(bindings, ConsumerHiveMetastore); !ok {
		return nil, fmt.Errorf("hive-metastore: no %s consumer bound", ConsumerHiveMetastore)
	}

	descriptors, err := embeddedDescriptors("hive-metastore")
	if err != nil {
		return nil, err
	}
	descriptors = append(descriptors, b.hiveSiteConfigMap())

	store, err := b.storeFor(PhaseHiveMetastore, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.check("metastore rollout", orchestrate.TargetDeployment, NamespaceMetastore, "hive-metastore"),
		b.check("thrift endpoints", orchestrate.TargetEndpoints, NamespaceMetastore, "hive-metastore"),
	}

	return b.phase(PhaseHiveMetastore, "hive metastore service",
		[]string{PhaseMetastoreDB, PhaseObjectStore}, store, checks), nil
}

// hiveSiteConfigMap renders the site configuration with the declared
// in-cluster warehouse endpoint.
func (b *Builder) hiveSiteConfigMap() descriptor.Descriptor {
	warehouseDir := fmt.Sprintf("s3a://%s/", primaryBucket(b.cfg.Warehouse.Buckets))
	site := fmt.Sprintf(hiveSiteTemplate,
		metastoreDBHost, metastoreDatabase, metastoreUser, warehouseDir, b.cfg.Warehouse.Endpoint)

	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "hive-metastore-site",
			"namespace": NamespaceMetastore,
		},
		"data": map[string]interface{}{
			"hive-site.xml": site,
		},
	}}
	return descriptor.New(obj)
}
