package labels

import "testing"

func TestNewBuilder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		platform string
	}{
		{"simple platform name", "local-data-platform"},
		{"single word", "lakehouse"},
		{"with numbers", "platform-01"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBuilder(tt.platform)
			if b == nil {
				t.Fatal("NewBuilder returned nil")
			}

			labels := b.Build()

			if labels[KeyPartOf] != tt.platform {
				t.Errorf("expected %s=%q, got %q", KeyPartOf, tt.platform, labels[KeyPartOf])
			}
			if labels[KeyManagedBy] != ManagedByCLI {
				t.Errorf("expected %s=%q, got %q", KeyManagedBy, ManagedByCLI, labels[KeyManagedBy])
			}
		})
	}
}

func TestBuilder_Chaining(t *testing.T) {
	t.Parallel()
	labels := NewBuilder("ldp").
		WithPhase("hive-metastore").
		WithEnvironment("dev").
		WithManagedBy(ManagedByReconciler).
		Merge(map[string]string{"app.kubernetes.io/name": "metastore"}).
		Build()

	want := map[string]string{
		KeyPartOf:                "ldp",
		KeyPhase:                 "hive-metastore",
		KeyEnvironment:           "dev",
		KeyManagedBy:             ManagedByReconciler,
		"app.kubernetes.io/name": "metastore",
	}

	if len(labels) != len(want) {
		t.Fatalf("expected %d labels, got %d: %v", len(want), len(labels), labels)
	}
	for k, v := range want {
		if labels[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, labels[k])
		}
	}
}

func TestBuilder_BuildReturnsCopy(t *testing.T) {
	t.Parallel()
	b := NewBuilder("ldp")
	first := b.Build()
	first["mutated"] = "yes"

	second := b.Build()
	if _, ok := second["mutated"]; ok {
		t.Error("Build must return a copy, external mutation leaked into builder")
	}
}

func TestSelectors(t *testing.T) {
	t.Parallel()
	if got := Selector("ldp"); got != "data-platform.io/part-of=ldp" {
		t.Errorf("Selector: got %q", got)
	}
	want := "data-platform.io/part-of=ldp,data-platform.io/phase=gitops"
	if got := SelectorForPhase("ldp", "gitops"); got != want {
		t.Errorf("SelectorForPhase: got %q, want %q", got, want)
	}
}
