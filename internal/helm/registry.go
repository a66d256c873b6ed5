package helm

// DefaultChartSpecs contains the default chart specifications for each
// platform service. These pin the official repositories and the versions
// the built-in plan is tested against. Users can override repository,
// chart name, or version per service via the platform config.
var DefaultChartSpecs = map[string]ChartSpec{
	"vault": {
		Repository: "https://helm.releases.hashicorp.com",
		Name:       "vault",
		Version:    "0.28.1",
	},
	"vault-secrets-operator": {
		Repository: "https://helm.releases.hashicorp.com",
		Name:       "vault-secrets-operator",
		Version:    "0.9.0",
	},
	"minio": {
		Repository: "https://charts.min.io/",
		Name:       "minio",
		Version:    "5.2.0",
	},
	"postgresql": {
		Repository: "https://charts.bitnami.com/bitnami",
		Name:       "postgresql",
		Version:    "15.5.38",
	},
	"argo-cd": {
		Repository: "https://argoproj.github.io/argo-helm",
		Name:       "argo-cd",
		Version:    "7.7.5",
	},
	"kyuubi": {
		Repository: "https://apache.github.io/kyuubi",
		Name:       "kyuubi",
		Version:    "v1.9.2",
	},
	"airflow": {
		Repository: "https://airflow.apache.org",
		Name:       "airflow",
		Version:    "1.15.0",
	},
	"kube-prometheus-stack": {
		Repository: "https://prometheus-community.github.io/helm-charts",
		Name:       "kube-prometheus-stack",
		Version:    "65.1.1",
	},
}
