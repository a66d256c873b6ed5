// Package config defines the ldpctl.yaml schema, its loader, and its
// validation rules.
//
// Configuration is read once at startup and never hot-reloaded. A few
// connection settings can be overridden by environment variables
// (VAULT_ADDR, WAREHOUSE_ENDPOINT, the LDP_TIMEOUT_* family); everything
// else comes from the file. Validation failures surface before any
// platform call and map to exit code 2 in the CLI.
//
// The phases section is empty in most installs, which selects the
// built-in platform plan from internal/catalog. A non-empty phases list
// replaces the plan entirely with user-declared phases built from
// manifest paths and charts.
package config
