// Package naming provides consistent naming functions for platform resources.
//
// Secrets-engine objects follow {consumer}-{access} for auth roles and
// ldp-{consumer}-{access} for policies; destination secrets follow
// {consumer}-secrets; GitOps applications follow {platform}-{component}.
package naming
