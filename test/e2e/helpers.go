//go:build e2e

package e2e

import (
	"fmt"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

const pauseImage = "registry.k8s.io/pause:3.9"

// workloadPlan declares a two-phase plan in the catalog's shape: the
// namespace first, then a config map and a pause deployment gated on
// rollout availability. Small enough for a single-node kind cluster.
func workloadPlan(ns string) (orchestrate.Plan, error) {
	nsStore := descriptor.NewStore()
	if err := nsStore.AddManifest([]byte(fmt.Sprintf(`
apiVersion: v1
kind: Namespace
metadata:
  name: %s
`, ns))); err != nil {
		return nil, err
	}

	workloadStore := descriptor.NewStore()
	if err := workloadStore.AddManifest([]byte(fmt.Sprintf(`
apiVersion: v1
kind: ConfigMap
metadata:
  name: pipeline-settings
  namespace: %s
data:
  mode: e2e
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: pause
  namespace: %s
spec:
  replicas: 1
  selector:
    matchLabels:
      app: pause
  template:
    metadata:
      labels:
        app: pause
    spec:
      containers:
        - name: pause
          image: %s
`, ns, ns, pauseImage))); err != nil {
		return nil, err
	}

	return orchestrate.Plan{
		{
			Name:        "namespaces",
			Description: "test namespace",
			Resources:   nsStore,
		},
		{
			Name:        "workload",
			Description: "config map and pause deployment",
			DependsOn:   []string{"namespaces"},
			Resources:   workloadStore,
			Checks: []orchestrate.ReadinessCheck{
				{
					Name:      "pause rollout",
					Target:    orchestrate.TargetDeployment,
					Namespace: ns,
					Ref:       "pause",
					Timeout:   2 * time.Minute,
					Required:  true,
				},
			},
		},
	}, nil
}

// findDescriptor returns the named descriptor from a plan phase.
func findDescriptor(plan orchestrate.Plan, phase, kind, name string) (descriptor.Descriptor, bool) {
	p := plan.Find(phase)
	if p == nil {
		return descriptor.Descriptor{}, false
	}
	for _, d := range p.Resources.List() {
		if d.GVK().Kind == kind && d.Name() == name {
			return d, true
		}
	}
	return descriptor.Descriptor{}, false
}
