// Package catalog assembles deployment plans. The built-in platform plan
// wires the data-platform services (secrets engine, object store, metastore,
// query gateway, workflow orchestrator, gitops controller) into phases with
// their readiness checks and bootstrap hooks. User-declared phases in the
// configuration replace the built-in plan entirely.
package catalog
