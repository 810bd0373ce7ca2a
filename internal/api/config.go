package api

import "github.com/fenwicklabs/orchestrator/internal/configloader"

// Config keys tunable at runtime for the HTTP server.
var (
	Host = configloader.Key{
		Namespace:   "orchestrator.api.host",
		Default:     "0.0.0.0",
		Public:      true,
		Description: "API host to run orchestration",
	}
	Port = configloader.Key{
		Namespace:   "orchestrator.api.port",
		Default:     80,
		Public:      true,
		Description: "API port to run orchestration",
	}
	Debug = configloader.Key{
		Namespace:   "orchestrator.api.debug",
		Default:     false,
		Public:      true,
		Description: "enables debug mode in the orchestration API",
	}
)

// Config is the full ApiConfig bundle, ready for ConfigLoader.InitConfig.
var Config = configloader.Bundle{Host, Port, Debug}

// SetDebugDefault overrides Debug's default before InitConfig runs, e.g.
// from the DEBUG_MODE environment variable. Must be called before
// InitConfig(ctx, Config) for the override to take effect, since
// InitConfig only writes a namespace's default the first time it's seen.
func SetDebugDefault(v bool) {
	Debug.Default = v
	Config[2] = Debug
}
