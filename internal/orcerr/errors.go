// Package orcerr defines the sentinel error kinds shared across the
// orchestrator's Connector, ConfigLoader, Tasker and API layers.
package orcerr

import "errors"

var (
	// ErrNotAValidConfig is returned when a ConfigLoader receives something
	// that is not a declared configloader.Key.
	ErrNotAValidConfig = errors.New("orcerr: not a valid config key")

	// ErrNotPermitted is returned when a runtime config mutation targets a
	// namespace that is not currently public.
	ErrNotPermitted = errors.New("orcerr: config namespace is not public")

	// ErrNotAFunction is returned when task or hook registration is given
	// something that isn't a callable of the expected shape.
	ErrNotAFunction = errors.New("orcerr: not a function")

	// ErrTaskNotFound is returned when a task name has no registered wrapper.
	ErrTaskNotFound = errors.New("orcerr: task not found")

	// ErrInvalidTaskArguments is returned when a task call fails argument
	// validation against its declared Signature.
	ErrInvalidTaskArguments = errors.New("orcerr: invalid task arguments")

	// ErrConnectorInitFail is returned when a Connector backend can't reach
	// its storage at construction time.
	ErrConnectorInitFail = errors.New("orcerr: connector backend unreachable")

	// ErrBorkedException marks a TaskResult stranded in NEW or PROGRESS at
	// process startup, reclaimed into ERROR by crash recovery.
	ErrBorkedException = errors.New("orcerr: container killed during task completion")

	// ErrNotImplemented is returned by operations the spec declares but a
	// given backend cannot honor, e.g. Pool.KillTask.
	ErrNotImplemented = errors.New("orcerr: not implemented for this backend")

	// ErrUnknownEnvironment is returned by the conductor when no factory is
	// registered for a role/name pair.
	ErrUnknownEnvironment = errors.New("orcerr: environment not found")
)
