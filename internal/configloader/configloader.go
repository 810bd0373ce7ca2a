// Package configloader provides typed, namespaced access to orchestrator
// tunables with a runtime-mutable ("public") subset, backed by a
// connector.Connector.
package configloader

import "context"

// Key is a statically declared configuration entry (Namespace/Default/
// Public/Description). Keys are declared as package-level vars grouped
// into a Bundle.
type Key struct {
	Namespace   string
	Default     any
	Public      bool
	Description string
}

// Valid reports whether k looks like a declared Key rather than a zero
// value.
func (k Key) Valid() bool {
	return k.Namespace != ""
}

// Bundle is a named group of Keys declared together (e.g. ApiConfig,
// TaskerConfig).
type Bundle []Key

// ConfigLoader is the typed config contract every component reads its
// tunables through.
type ConfigLoader interface {
	// InitConfig validates bundle and, for each namespace absent from
	// storage, writes its default value and (if declared public) its
	// publicity marker.
	InitConfig(ctx context.Context, bundle Bundle) error

	// Get returns key's current value, lazily initializing it from its
	// default if absent.
	Get(ctx context.Context, key Key) (any, error)

	// Set stores value for key. If value is nil, key's declared default
	// is written instead.
	Set(ctx context.Context, key Key, value any) error

	// IsInitialized reports whether key's value is already present.
	IsInitialized(ctx context.Context, key Key) (bool, error)

	// MakePublic marks key's namespace as runtime-mutable.
	MakePublic(ctx context.Context, key Key) error

	// UnmakePublic removes key's publicity marker, returning false if it
	// wasn't present.
	UnmakePublic(ctx context.Context, key Key) (bool, error)

	// ListPublic returns every public namespace mapped to its description.
	ListPublic(ctx context.Context) (map[string]string, error)

	// SetPublic sets a value by bare namespace string, rejecting with
	// orcerr.ErrNotPermitted if ns is not currently public.
	SetPublic(ctx context.Context, namespace string, value any) error

	// GetPublic reads a value by bare namespace string, rejecting with
	// orcerr.ErrNotPermitted if ns is not currently public.
	GetPublic(ctx context.Context, namespace string) (any, error)

	// CheckPublic reports whether namespace is currently public.
	CheckPublic(ctx context.Context, namespace string) (bool, error)

	// GracefulShutdown delegates to the underlying Connector.
	GracefulShutdown(ctx context.Context) error
}
