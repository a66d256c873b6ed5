// Package helm downloads and renders the platform's service charts into
// plain Kubernetes manifests.
//
// It includes a chart registry pinning each platform service to an
// official repository and version, a downloader with in-memory and
// on-disk caching, a local renderer built on the helm engine, and shared
// value builder functions for blocks most charts agree on (labels,
// resources, persistence, service accounts).
//
// Rendering never talks to a cluster. Charts become manifest streams that
// the descriptor store decomposes into tracked resources, so one apply
// path covers helm-sourced and embedded resources alike.
package helm
