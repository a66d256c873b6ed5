package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errPlatformNameRequired = errors.New("platform name is required")
	errPlatformNameInvalid  = errors.New("platform name must be 1-32 lowercase alphanumeric characters or hyphens, starting with a letter")
	errEndpointRequired     = errors.New("endpoint is required")
	errEndpointInvalid      = errors.New("endpoint must be an absolute http:// or https:// URL")
	errBucketsRequired      = errors.New("at least one bucket name is required")
	errBucketNameInvalid    = errors.New("bucket names must be 3-63 lowercase alphanumeric characters, hyphens, or dots")
	errRepoURLInvalid       = errors.New("repository URL must be an https:// or git@ address (or empty to skip)")
	errNamespaceInvalid     = errors.New("namespace must be lowercase alphanumeric characters or hyphens, starting with a letter")
)
