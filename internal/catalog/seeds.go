package catalog

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// metastoreDBHost is where the shared relational store answers once the
// metastore-db phase is up: release "postgresql" in the metastore namespace.
const metastoreDBHost = "postgresql.metastore.svc.cluster.local:5432"

// Relational store identities the seed material and chart values agree on.
const (
	metastoreDatabase = "metastore"
	metastoreUser     = "hive"
	airflowDatabase   = "airflow"
)

// seedsFor generates the initial KV material for every binding path. The
// material forms one consistent set: the admin password seeded under the
// metastore path is the same one inside the workflow orchestrator's metadata
// connection URI, and the warehouse credentials fan out to every consumer
// that reads or writes the object store. The coordinator writes seeds into
// empty paths only, so re-running a deploy never rotates anything.
func seedsFor(bindings []secrets.Binding, warehouseAccessKey, warehouseSecretKey string) (map[string]map[string]any, error) {
	adminPassword, err := secrets.GeneratePassword(24)
	if err != nil {
		return nil, err
	}

	seeds := make(map[string]map[string]any, len(bindings))
	for _, b := range bindings {
		if _, ok := seeds[b.Path]; ok {
			continue
		}
		material, err := seedMaterial(b.Consumer, adminPassword, warehouseAccessKey, warehouseSecretKey)
		if err != nil {
			return nil, fmt.Errorf("seed material for %s: %w", b.Consumer, err)
		}
		seeds[b.Path] = material
	}
	return seeds, nil
}

// seedMaterial returns the keys one consumer's chart and workload expect in
// the destination Secret. Key casing follows how each consumer reads them:
// the metastore deployment and the database chart use kebab-case keys, the
// query gateway injects its whole Secret as environment variables.
func seedMaterial(consumer, adminPassword, warehouseAccessKey, warehouseSecretKey string) (map[string]any, error) {
	switch consumer {
	case ConsumerHiveMetastore:
		userPassword, err := secrets.GeneratePassword(24)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"postgres-password": adminPassword,
			"password":          userPassword,
			"username":          metastoreUser,
			"database":          metastoreDatabase,
			"access-key":        warehouseAccessKey,
			"secret-key":        warehouseSecretKey,
		}, nil

	case ConsumerKyuubi:
		return map[string]any{
			"AWS_ACCESS_KEY_ID":     warehouseAccessKey,
			"AWS_SECRET_ACCESS_KEY": warehouseSecretKey,
		}, nil

	case ConsumerAirflow:
		fernet, err := fernetKey()
		if err != nil {
			return nil, err
		}
		webserverKey, err := secrets.GeneratePassword(16)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"fernet-key":           fernet,
			"webserver-secret-key": webserverKey,
			"connection": fmt.Sprintf("postgresql://postgres:%s@%s/%s",
				adminPassword, metastoreDBHost, airflowDatabase),
		}, nil

	default:
		password, err := secrets.GeneratePassword(24)
		if err != nil {
			return nil, err
		}
		return map[string]any{"password": password}, nil
	}
}

// fernetKey returns 32 random bytes as padded urlsafe base64, the shape the
// workflow orchestrator requires for credential encryption.
func fernetKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
