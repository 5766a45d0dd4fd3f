package graph

import (
	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/initsys"
)

// Error kinds returned by the manager besides errors.NotValid and
// errors.NotFound. Match them with errors.Is.
const (
	ErrPreconditionFailed = errors.ConstError("precondition failed")
	ErrPermissionDenied   = errors.ConstError("permission denied")
	ErrCycle              = errors.ConstError("dependency cycle")
)

// IsInvalidArgument reports whether err rejects caller input.
func IsInvalidArgument(err error) bool { return errors.Is(err, errors.NotValid) }

// IsNotFound reports whether err names a missing descriptor.
func IsNotFound(err error) bool { return errors.Is(err, errors.NotFound) }

// IsPreconditionFailed reports whether the template unit is missing.
func IsPreconditionFailed(err error) bool { return errors.Is(err, ErrPreconditionFailed) }

// IsBackendFailure reports whether the service manager call failed.
func IsBackendFailure(err error) bool { return errors.Is(err, initsys.ErrBackend) }
