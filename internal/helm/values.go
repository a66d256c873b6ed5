package helm

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Values represents helm chart values as a map.
type Values map[string]any

// Merge combines multiple Values maps with later maps taking precedence.
// Top-level keys overwrite; use deepMerge via the renderer for nested
// structures.
func Merge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// deepMerge recursively merges overlay into base and returns a new map.
// When both sides hold a map for the same key the maps merge recursively,
// otherwise the overlay value overwrites.
func deepMerge(base, overlay Values) Values {
	result := make(Values, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for key, overlayVal := range overlay {
		if baseVal, exists := result[key]; exists {
			overlayMap, overlayIsMap := asValues(overlayVal)
			baseMap, baseIsMap := asValues(baseVal)
			if overlayIsMap && baseIsMap {
				result[key] = deepMerge(baseMap, overlayMap)
				continue
			}
		}
		result[key] = overlayVal
	}
	return result
}

// asValues normalizes the two map shapes that appear in chart values:
// the Values alias used by callers and the plain map produced by YAML
// decoding and chart loading.
func asValues(v any) (Values, bool) {
	switch m := v.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	default:
		return nil, false
	}
}

// ToMap recursively converts nested Values to plain map[string]any so the
// helm engine sees only the types it expects.
func (v Values) ToMap() map[string]any {
	result := make(map[string]any, len(v))
	for key, val := range v {
		result[key] = toPlain(val)
	}
	return result
}

func toPlain(v any) any {
	switch val := v.(type) {
	case Values:
		return val.ToMap()
	case map[string]any:
		return Values(val).ToMap()
	case []Values:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = item.ToMap()
		}
		return items
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = toPlain(item)
		}
		return items
	default:
		return v
	}
}

// ToYAML converts values to YAML bytes.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// FromYAML parses YAML bytes into Values.
func FromYAML(data []byte) (Values, error) {
	var values Values
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse YAML values: %w", err)
	}
	return values, nil
}
