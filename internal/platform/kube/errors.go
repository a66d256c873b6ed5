package kube

import (
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"

	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// Classify maps a Kubernetes API error onto a retry class.
//
// Field manager conflicts, immutable field updates and already-exists races
// are conflicts: retrying the same apply will not help, but the recovery
// handler (delete and recreate) can. Authorization and schema problems are
// fatal. Everything else, including unknown kinds that may appear once a CRD
// registers, is worth another attempt.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.ClassTransient
	}
	if retry.IsFatal(err) {
		return retry.ClassFatal
	}

	switch {
	case apierrors.IsConflict(err),
		apierrors.IsAlreadyExists(err),
		apierrors.IsInvalid(err):
		return retry.ClassConflict

	case apierrors.IsUnauthorized(err),
		apierrors.IsForbidden(err),
		apierrors.IsBadRequest(err),
		apierrors.IsMethodNotSupported(err),
		apierrors.IsRequestEntityTooLargeError(err):
		return retry.ClassFatal

	case apierrors.IsServerTimeout(err),
		apierrors.IsTimeout(err),
		apierrors.IsTooManyRequests(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err),
		meta.IsNoMatchError(err):
		return retry.ClassTransient
	}

	return retry.ClassTransient
}
