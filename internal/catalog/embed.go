package catalog

import (
	"embed"
	"fmt"
	"path"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
)

// Embedded manifests carry the built-in plan's non-chart resources: the
// fixed namespaces, the metastore workload, and the dev ingress routes.
//
//go:embed manifests
var manifestsFS embed.FS

// embeddedDescriptors loads one phase's manifest directory from the binary.
func embeddedDescriptors(dir string) ([]descriptor.Descriptor, error) {
	store := descriptor.NewStore()
	if err := store.AddFS(manifestsFS, path.Join("manifests", dir)); err != nil {
		return nil, fmt.Errorf("embedded manifests %s: %w", dir, err)
	}
	return store.List(), nil
}
