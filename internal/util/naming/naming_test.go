package naming

import "testing"

func TestNamingFunctions(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Release",
			got:      Release("hive-metastore"),
			expected: "hive-metastore",
		},
		{
			name:     "DestinationSecret",
			got:      DestinationSecret("airflow"),
			expected: "airflow-secrets",
		},
		{
			name:     "VaultPolicy",
			got:      VaultPolicy("kyuubi", "read"),
			expected: "ldp-kyuubi-read",
		},
		{
			name:     "VaultRole",
			got:      VaultRole("kyuubi"),
			expected: "kyuubi",
		},
		{
			name:     "VaultAuth",
			got:      VaultAuth("hive-metastore"),
			expected: "hive-metastore-vault-auth",
		},
		{
			name:     "Application",
			got:      Application("ldp", "pipelines"),
			expected: "ldp-pipelines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}
