package catalog

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// ingressPhase exposes the platform UIs on ldp.local hosts. The workflow
// and warehouse-console routes ship as embedded manifests; the gitops route
// is generated because its namespace is configurable. The controller check
// is optional: clusters without ingress-nginx still deploy, the routes just
// stay unreachable until a controller appears.
func (b *Builder) ingressPhase(bindings []secrets.Binding) (*orchestrate.Phase, error) {
	descriptors, err := embeddedDescriptors("ingress")
	if err != nil {
		return nil, err
	}
	descriptors = append(descriptors, b.gitopsIngress())

	store, err := b.storeFor(PhaseIngress, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.optionalCheck("ingress controller", orchestrate.TargetEndpoints, "ingress-nginx", "ingress-nginx-controller"),
	}

	dependsOn := []string{PhaseWorkflow, PhaseGitOps}
	if _, ok := findBinding(bindings, ConsumerKyuubi); ok {
		dependsOn = append(dependsOn, PhaseQueryGateway)
	}

	return b.phase(PhaseIngress, "platform ui routes", dependsOn, store, checks), nil
}

// gitopsIngress routes argocd.ldp.local at the controller's api server.
func (b *Builder) gitopsIngress() descriptor.Descriptor {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "networking.k8s.io/v1",
		"kind":       "Ingress",
		"metadata": map[string]interface{}{
			"name":      "argo-cd-server",
			"namespace": b.cfg.GitOps.Namespace,
			"annotations": map[string]interface{}{
				"nginx.ingress.kubernetes.io/ssl-redirect": "false",
			},
		},
		"spec": map[string]interface{}{
			"ingressClassName": "nginx",
			"rules": []interface{}{
				map[string]interface{}{
					"host": "argocd.ldp.local",
					"http": map[string]interface{}{
						"paths": []interface{}{
							map[string]interface{}{
								"path":     "/",
								"pathType": "Prefix",
								"backend": map[string]interface{}{
									"service": map[string]interface{}{
										"name": "argo-cd-server",
										"port": map[string]interface{}{
											"number": int64(80),
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}}
	return descriptor.New(obj)
}
