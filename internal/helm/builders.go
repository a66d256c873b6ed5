package helm

// Shared value builders for the shapes most platform charts agree on.
// Service-specific nesting (where a chart wants these blocks) stays in
// the catalog.

// CommonLabels converts a label map into chart values, for charts that
// accept a commonLabels block.
func CommonLabels(labels map[string]string) Values {
	values := make(Values, len(labels))
	for k, v := range labels {
		values[k] = v
	}
	return values
}

// ResourceProfile returns a resources block with the given requests and
// limits. Empty strings omit the corresponding entry so chart defaults
// apply.
func ResourceProfile(requestsCPU, requestsMemory, limitsCPU, limitsMemory string) Values {
	requests := Values{}
	if requestsCPU != "" {
		requests["cpu"] = requestsCPU
	}
	if requestsMemory != "" {
		requests["memory"] = requestsMemory
	}

	limits := Values{}
	if limitsCPU != "" {
		limits["cpu"] = limitsCPU
	}
	if limitsMemory != "" {
		limits["memory"] = limitsMemory
	}

	resources := Values{}
	if len(requests) > 0 {
		resources["requests"] = requests
	}
	if len(limits) > 0 {
		resources["limits"] = limits
	}
	return resources
}

// PersistenceValues returns a persistence block. An empty storageClass
// keeps the cluster default.
func PersistenceValues(enabled bool, size, storageClass string) Values {
	values := Values{
		"enabled": enabled,
	}
	if size != "" {
		values["size"] = size
	}
	if storageClass != "" {
		values["storageClass"] = storageClass
	}
	return values
}

// ServiceAccountValues returns a serviceAccount block pinning the account
// name. Secret bindings authenticate by service account, so charts must
// run under the name the binding declares.
func ServiceAccountValues(name string, create bool) Values {
	return Values{
		"create": create,
		"name":   name,
	}
}
