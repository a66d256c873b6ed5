package catalog

import (
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/helm"
)

// sizing carries the per-environment scale knobs the chart value builders
// consume.
type sizing struct {
	// ha switches the production topologies: standalone vault with
	// persistent storage, distributed object store, redundant gitops redis.
	ha bool

	vaultStorage    string
	minioReplicas   int
	minioStorage    string
	postgresStorage string

	requestsCPU    string
	requestsMemory string
	limitsCPU      string
	limitsMemory   string

	prometheusRetention string
}

// sizingFor maps an environment to its preset.
func sizingFor(env config.Environment) sizing {
	switch env {
	case config.EnvProd:
		return sizing{
			ha:                  true,
			vaultStorage:        "10Gi",
			minioReplicas:       4,
			minioStorage:        "50Gi",
			postgresStorage:     "20Gi",
			requestsCPU:         "500m",
			requestsMemory:      "1Gi",
			limitsCPU:           "2",
			limitsMemory:        "4Gi",
			prometheusRetention: "15d",
		}
	case config.EnvStaging:
		return sizing{
			minioReplicas:       1,
			minioStorage:        "20Gi",
			postgresStorage:     "10Gi",
			requestsCPU:         "250m",
			requestsMemory:      "512Mi",
			limitsCPU:           "1",
			limitsMemory:        "2Gi",
			prometheusRetention: "7d",
		}
	default:
		return sizing{
			minioReplicas:       1,
			minioStorage:        "5Gi",
			postgresStorage:     "2Gi",
			requestsCPU:         "250m",
			requestsMemory:      "512Mi",
			limitsCPU:           "1",
			limitsMemory:        "2Gi",
			prometheusRetention: "2d",
		}
	}
}

// resources returns the container sizing for the heavier platform services.
func (s sizing) resources() helm.Values {
	return helm.ResourceProfile(s.requestsCPU, s.requestsMemory, s.limitsCPU, s.limitsMemory)
}
