package reconcile

import (
	"encoding/base64"
	"reflect"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Drifted reports whether the live object no longer carries the declared
// payload. Only fields the declaration names participate in the comparison,
// so defaulted and controller-owned fields never register as drift. The
// comparison tolerates the numeric and quantity normalization the API server
// performs on write; at worst a tolerated mismatch triggers a reapply, which
// Server-Side Apply turns into a no-op.
func Drifted(declared, live *unstructured.Unstructured) bool {
	want := declaredContent(declared)
	return !semanticEqual(want, project(want, live.Object))
}

// declaredContent returns the declared payload in its stored form. Fields
// the server owns are dropped: a chart-rendered status block or null
// creationTimestamp would otherwise never converge. Secret stringData folds
// into base64 data the way the API server persists it.
func declaredContent(obj *unstructured.Unstructured) map[string]interface{} {
	want := obj.DeepCopy().Object
	unstructured.RemoveNestedField(want, "status")
	unstructured.RemoveNestedField(want, "metadata", "creationTimestamp")

	if obj.GetAPIVersion() == "v1" && obj.GetKind() == "Secret" {
		foldStringData(want)
	}
	return want
}

func foldStringData(want map[string]interface{}) {
	stringData, found, err := unstructured.NestedStringMap(want, "stringData")
	if !found || err != nil {
		return
	}

	data, _, _ := unstructured.NestedMap(want, "data")
	if data == nil {
		data = map[string]interface{}{}
	}
	for key, value := range stringData {
		data[key] = base64.StdEncoding.EncodeToString([]byte(value))
	}
	unstructured.RemoveNestedField(want, "stringData")
	_ = unstructured.SetNestedMap(want, data, "data")
}

// project keeps the live values for exactly the keys the declaration names.
// Keys absent from live are dropped, so the comparison sees them as missing.
func project(want, live map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(want))
	for key, wantVal := range want {
		liveVal, ok := live[key]
		if !ok {
			continue
		}
		out[key] = projectValue(wantVal, liveVal)
	}
	return out
}

// projectValue recurses into maps and same-length lists. A list whose length
// changed comes back as-is: that is drift, and the reapply restores the
// declared shape.
func projectValue(want, live interface{}) interface{} {
	switch wantTyped := want.(type) {
	case map[string]interface{}:
		if liveMap, ok := live.(map[string]interface{}); ok {
			return project(wantTyped, liveMap)
		}
	case []interface{}:
		liveList, ok := live.([]interface{})
		if ok && len(liveList) == len(wantTyped) {
			out := make([]interface{}, len(wantTyped))
			for i := range wantTyped {
				out[i] = projectValue(wantTyped[i], liveList[i])
			}
			return out
		}
	}
	return live
}

// semanticEqual compares a declared value against its projection. Numbers
// compare by value whatever their decoded width, and strings that both parse
// as Kubernetes quantities compare as quantities, so "1000m" declared and
// "1" stored do not loop as drift.
func semanticEqual(want, got interface{}) bool {
	switch wantTyped := want.(type) {
	case map[string]interface{}:
		gotMap, ok := got.(map[string]interface{})
		if !ok || len(gotMap) != len(wantTyped) {
			return false
		}
		for key, wantVal := range wantTyped {
			gotVal, present := gotMap[key]
			if !present || !semanticEqual(wantVal, gotVal) {
				return false
			}
		}
		return true

	case []interface{}:
		gotList, ok := got.([]interface{})
		if !ok || len(gotList) != len(wantTyped) {
			return false
		}
		for i := range wantTyped {
			if !semanticEqual(wantTyped[i], gotList[i]) {
				return false
			}
		}
		return true

	case string:
		gotStr, ok := got.(string)
		if !ok {
			return false
		}
		return wantTyped == gotStr || quantityEqual(wantTyped, gotStr)

	default:
		if equal, comparable := numericEqual(want, got); comparable {
			return equal
		}
		return reflect.DeepEqual(want, got)
	}
}

func numericEqual(a, b interface{}) (equal, comparable bool) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false, false
	}
	return af == bf, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func quantityEqual(a, b string) bool {
	qa, err := resource.ParseQuantity(a)
	if err != nil {
		return false
	}
	qb, err := resource.ParseQuantity(b)
	if err != nil {
		return false
	}
	return qa.Cmp(qb) == 0
}
