package kube

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	crdGVR = schema.GroupVersionResource{Group: "apiextensions.k8s.io", Version: "v1", Resource: "customresourcedefinitions"}
	appGVR = schema.GroupVersionResource{Group: "argoproj.io", Version: "v1alpha1", Resource: "applications"}
)

// DeploymentAvailable checks the deployment's rollout: the controller has
// observed the current generation, every replica is updated and available,
// and the Available condition is set.
func (c *client) DeploymentAvailable(ctx context.Context, namespace, name string) (bool, string, error) {
	dep, err := c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "deployment not found", nil
	}
	if err != nil {
		return false, "", err
	}

	want := int32(1)
	if dep.Spec.Replicas != nil {
		want = *dep.Spec.Replicas
	}

	if dep.Status.ObservedGeneration < dep.Generation {
		return false, "rollout not yet observed", nil
	}
	if dep.Status.UpdatedReplicas < want {
		return false, fmt.Sprintf("%d/%d replicas updated", dep.Status.UpdatedReplicas, want), nil
	}
	if dep.Status.AvailableReplicas < want {
		return false, fmt.Sprintf("%d/%d replicas available", dep.Status.AvailableReplicas, want), nil
	}

	for _, cond := range dep.Status.Conditions {
		if cond.Type == appsv1.DeploymentAvailable && cond.Status == corev1.ConditionTrue {
			return true, fmt.Sprintf("%d/%d replicas available", dep.Status.AvailableReplicas, want), nil
		}
	}
	return false, "waiting for Available condition", nil
}

// StatefulSetReady checks that the statefulset's current generation has all
// replicas ready and updated.
func (c *client) StatefulSetReady(ctx context.Context, namespace, name string) (bool, string, error) {
	sts, err := c.clientset.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "statefulset not found", nil
	}
	if err != nil {
		return false, "", err
	}

	want := int32(1)
	if sts.Spec.Replicas != nil {
		want = *sts.Spec.Replicas
	}

	if sts.Status.ObservedGeneration < sts.Generation {
		return false, "rollout not yet observed", nil
	}
	if sts.Status.UpdatedReplicas < want {
		return false, fmt.Sprintf("%d/%d replicas updated", sts.Status.UpdatedReplicas, want), nil
	}
	if sts.Status.ReadyReplicas < want {
		return false, fmt.Sprintf("%d/%d replicas ready", sts.Status.ReadyReplicas, want), nil
	}
	return true, fmt.Sprintf("%d/%d replicas ready", sts.Status.ReadyReplicas, want), nil
}

// PodsReady lists pods by label selector and requires at least one match with
// every match Running and Ready.
func (c *client) PodsReady(ctx context.Context, namespace, selector string) (bool, string, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return false, "", err
	}
	if len(pods.Items) == 0 {
		return false, fmt.Sprintf("no pods match %s", selector), nil
	}

	ready := 0
	for i := range pods.Items {
		if isPodReady(&pods.Items[i]) {
			ready++
		}
	}
	if ready < len(pods.Items) {
		return false, fmt.Sprintf("%d/%d pods ready", ready, len(pods.Items)), nil
	}
	return true, fmt.Sprintf("%d/%d pods ready", ready, len(pods.Items)), nil
}

// EndpointsReady checks that the service has at least one ready endpoint
// address.
func (c *client) EndpointsReady(ctx context.Context, namespace, service string) (bool, string, error) {
	endpoints, err := c.clientset.CoreV1().Endpoints(namespace).Get(ctx, service, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "endpoints not found", nil
	}
	if err != nil {
		return false, "", err
	}

	for _, subset := range endpoints.Subsets {
		if len(subset.Addresses) > 0 {
			return true, fmt.Sprintf("%d endpoint addresses", len(subset.Addresses)), nil
		}
	}
	return false, "no ready endpoint addresses", nil
}

// CRDEstablished checks that the named CRD exists and reports the Established
// condition, meaning its kinds are being served.
func (c *client) CRDEstablished(ctx context.Context, name string) (bool, string, error) {
	crd, err := c.dynamic.Resource(crdGVR).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "crd not found", nil
	}
	if err != nil {
		return false, "", err
	}

	conditions, _, _ := unstructured.NestedSlice(crd.Object, "status", "conditions")
	for _, raw := range conditions {
		cond, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if cond["type"] == "Established" && cond["status"] == "True" {
			return true, "established", nil
		}
	}
	return false, "waiting for Established condition", nil
}

// SecretMaterialized checks that the secret exists and carries at least one
// data key. Used to confirm a sync binding has landed secret material.
func (c *client) SecretMaterialized(ctx context.Context, namespace, name string) (bool, string, error) {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "secret not found", nil
	}
	if err != nil {
		return false, "", err
	}

	if len(secret.Data) == 0 {
		return false, "secret has no data", nil
	}
	return true, fmt.Sprintf("%d data keys", len(secret.Data)), nil
}

// ApplicationSynced checks that the Argo CD application reports both Synced
// and Healthy.
func (c *client) ApplicationSynced(ctx context.Context, namespace, name string) (bool, string, error) {
	app, err := c.dynamic.Resource(appGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "application not found", nil
	}
	if err != nil {
		return false, "", err
	}

	syncStatus, _, _ := unstructured.NestedString(app.Object, "status", "sync", "status")
	healthStatus, _, _ := unstructured.NestedString(app.Object, "status", "health", "status")

	if syncStatus == "Synced" && healthStatus == "Healthy" {
		return true, "synced and healthy", nil
	}
	return false, fmt.Sprintf("sync=%s health=%s", orUnknown(syncStatus), orUnknown(healthStatus)), nil
}

func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
