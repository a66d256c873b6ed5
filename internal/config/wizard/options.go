package wizard

import "github.com/charmbracelet/huh"

// EnvironmentOption represents a platform sizing preset.
type EnvironmentOption struct {
	Value       string
	Label       string
	Description string
}

// Environments contains all valid sizing presets.
var Environments = []EnvironmentOption{
	{Value: "dev", Label: "dev", Description: "Single replicas, minimal persistence"},
	{Value: "staging", Label: "staging", Description: "Shared integration sizing"},
	{Value: "prod", Label: "prod", Description: "HA replicas, full persistence"},
}

// ConsumerOption represents a platform service that can receive secret
// material through the sync pipeline.
type ConsumerOption struct {
	Key         string
	Label       string
	Description string
	Namespace   string
	Default     bool
}

// Consumers contains the platform services the built-in plan deploys.
var Consumers = []ConsumerOption{
	{Key: "hive-metastore", Label: "Hive Metastore", Description: "Table metadata service backed by PostgreSQL", Namespace: "metastore", Default: true},
	{Key: "kyuubi", Label: "Kyuubi", Description: "SQL query gateway for Spark workloads", Namespace: "kyuubi", Default: true},
	{Key: "airflow", Label: "Airflow", Description: "Workflow orchestrator", Namespace: "airflow", Default: true},
}

// EnvironmentsToOptions converts EnvironmentOption slice to huh.Option slice.
func EnvironmentsToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Environments))
	for i, env := range Environments {
		opts[i] = huh.NewOption(env.Label+" - "+env.Description, env.Value)
	}
	return opts
}

// ConsumersToOptions converts ConsumerOption slice to huh.Option slice.
func ConsumersToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Consumers))
	for i, c := range Consumers {
		opts[i] = huh.NewOption(c.Label+" - "+c.Description, c.Key)
	}
	return opts
}

// FindConsumer looks up a consumer option by key.
func FindConsumer(key string) (ConsumerOption, bool) {
	for _, c := range Consumers {
		if c.Key == key {
			return c, true
		}
	}
	return ConsumerOption{}, false
}
