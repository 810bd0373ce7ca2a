// Package conductor is the process-wide selector that pins each role
// (storage, config, api, tasker) to a named implementation and its default
// construction parameters.
//
// Implementations register themselves into an explicit factory map at
// package init time rather than through any reflective lookup, so
// selection never depends on a runtime class hierarchy.
package conductor

import (
	"fmt"
	"os"

	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

// Role names a pluggable component kind.
type Role string

const (
	RoleStorage Role = "storage"
	RoleConfig  Role = "config"
	RoleAPI     Role = "api"
	RoleTasker  Role = "tasker"
)

// Bag carries untyped construction parameters to a factory.
type Bag map[string]any

// Factory builds a role implementation from a Bag of parameters.
type Factory func(Bag) (any, error)

var registry = map[Role]map[string]Factory{
	RoleStorage: {},
	RoleConfig:  {},
	RoleAPI:     {},
	RoleTasker:  {},
}

// Register adds a named implementation factory for a role. Backend
// packages call this from an init() function so that selection never
// depends on import order beyond "the backend package was imported".
func Register(role Role, name string, f Factory) {
	m, ok := registry[role]
	if !ok {
		m = map[string]Factory{}
		registry[role] = m
	}
	m[name] = f
}

// envVar maps a role to the environment variable that overrides its
// selection.
var envVar = map[Role]string{
	RoleStorage: "orc_storage_env",
	RoleConfig:  "orc_config_env",
	RoleAPI:     "orc_api_env",
	RoleTasker:  "orc_task_env",
}

// defaults are the built-in fallbacks used when the role's environment
// variable is unset: Redis / persistent-KV-config / gin HTTP / goroutine
// worker pool.
var defaults = map[Role]string{
	RoleStorage: "redis",
	RoleConfig:  "persistent",
	RoleAPI:     "gin",
	RoleTasker:  "pool",
}

// Selection returns the implementation name currently selected for role,
// honoring its environment variable override.
func Selection(role Role) string {
	if v := os.Getenv(envVar[role]); v != "" {
		return v
	}
	return defaults[role]
}

// Build constructs the role's currently-selected implementation. name, if
// non-empty, overrides Selection(role) for this one call (used by tests
// and by callers that want to pin a backend regardless of environment).
func Build(role Role, name string, bag Bag) (any, error) {
	if name == "" {
		name = Selection(role)
	}
	factories, ok := registry[role]
	if !ok {
		return nil, fmt.Errorf("conductor: unknown role %q: %w", role, orcerr.ErrUnknownEnvironment)
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("conductor: no %q implementation named %q: %w", role, name, orcerr.ErrUnknownEnvironment)
	}
	return factory(bag)
}
