package configloader

import (
	"context"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/connector"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	// Config values flow through connector.Encode/Decode as `any`, so every
	// concrete type a Key.Default or a Set call might carry has to be
	// known to gob ahead of time.
	gob.Register("")
	gob.Register(0)
	gob.Register(false)
	gob.Register(float64(0))

	conductor.Register(conductor.RoleConfig, "persistent", func(bag conductor.Bag) (any, error) {
		conn, ok := bag["connector"].(connector.Connector)
		if !ok {
			return nil, fmt.Errorf("configloader: bag missing \"connector\": %w", orcerr.ErrConnectorInitFail)
		}
		return NewPersistent(conn), nil
	})
}

const (
	configPrefix = "config."
	publicPrefix = "public."
)

func configKey(namespace string) string { return configPrefix + namespace }
func publicKey(namespace string) string { return publicPrefix + namespace }

// configStrip recovers the bare namespace from a "config.<ns>" storage key.
func configStrip(key string) string {
	return strings.TrimPrefix(key, configPrefix)
}

// Persistent is the sole ConfigLoader implementation: a thin typed layer
// over any connector.Connector.
type Persistent struct {
	conn connector.Connector
}

// NewPersistent wraps conn as a ConfigLoader.
func NewPersistent(conn connector.Connector) *Persistent {
	return &Persistent{conn: conn}
}

func (p *Persistent) InitConfig(ctx context.Context, bundle Bundle) error {
	for _, key := range bundle {
		if !key.Valid() {
			return orcerr.ErrNotAValidConfig
		}
		initialized, err := p.IsInitialized(ctx, key)
		if err != nil {
			return err
		}
		if !initialized {
			if err := p.Set(ctx, key, key.Default); err != nil {
				return err
			}
			if key.Public {
				if err := p.MakePublic(ctx, key); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *Persistent) Get(ctx context.Context, key Key) (any, error) {
	if !key.Valid() {
		return nil, orcerr.ErrNotAValidConfig
	}
	raw, err := p.conn.Get(ctx, configKey(key.Namespace))
	if err != nil {
		return nil, fmt.Errorf("configloader: get %s: %w", key.Namespace, err)
	}
	if raw == nil {
		if err := p.Set(ctx, key, key.Default); err != nil {
			return nil, err
		}
		return key.Default, nil
	}
	var value any
	if err := connector.Decode(raw, &value); err != nil {
		return nil, fmt.Errorf("configloader: decode %s: %w", key.Namespace, err)
	}
	return value, nil
}

func (p *Persistent) Set(ctx context.Context, key Key, value any) error {
	if !key.Valid() {
		return orcerr.ErrNotAValidConfig
	}
	if value == nil {
		value = key.Default
	}
	raw, err := connector.Encode(value)
	if err != nil {
		return fmt.Errorf("configloader: encode %s: %w", key.Namespace, err)
	}
	if err := p.conn.Set(ctx, configKey(key.Namespace), raw, 0); err != nil {
		return fmt.Errorf("configloader: set %s: %w", key.Namespace, err)
	}
	return nil
}

func (p *Persistent) IsInitialized(ctx context.Context, key Key) (bool, error) {
	if !key.Valid() {
		return false, orcerr.ErrNotAValidConfig
	}
	raw, err := p.conn.Get(ctx, configKey(key.Namespace))
	if err != nil {
		return false, fmt.Errorf("configloader: is initialized %s: %w", key.Namespace, err)
	}
	return raw != nil, nil
}

func (p *Persistent) MakePublic(ctx context.Context, key Key) error {
	if !key.Valid() {
		return orcerr.ErrNotAValidConfig
	}
	raw, err := connector.Encode(key.Description)
	if err != nil {
		return fmt.Errorf("configloader: encode public marker %s: %w", key.Namespace, err)
	}
	if err := p.conn.Set(ctx, publicKey(key.Namespace), raw, 0); err != nil {
		return fmt.Errorf("configloader: make public %s: %w", key.Namespace, err)
	}
	return nil
}

func (p *Persistent) UnmakePublic(ctx context.Context, key Key) (bool, error) {
	if !key.Valid() {
		return false, orcerr.ErrNotAValidConfig
	}
	n, err := p.conn.Delete(ctx, publicKey(key.Namespace))
	if err != nil {
		return false, fmt.Errorf("configloader: unmake public %s: %w", key.Namespace, err)
	}
	return n > 0, nil
}

func (p *Persistent) ListPublic(ctx context.Context) (map[string]string, error) {
	keys, err := p.conn.Keys(ctx, publicPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("configloader: list public: %w", err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		ns := strings.TrimPrefix(k, publicPrefix)
		raw, err := p.conn.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("configloader: list public read %s: %w", ns, err)
		}
		var description string
		if raw != nil {
			if err := connector.Decode(raw, &description); err != nil {
				return nil, fmt.Errorf("configloader: list public decode %s: %w", ns, err)
			}
		}
		out[ns] = description
	}
	return out, nil
}

func (p *Persistent) CheckPublic(ctx context.Context, namespace string) (bool, error) {
	raw, err := p.conn.Get(ctx, publicKey(namespace))
	if err != nil {
		return false, fmt.Errorf("configloader: check public %s: %w", namespace, err)
	}
	return raw != nil, nil
}

func (p *Persistent) SetPublic(ctx context.Context, namespace string, value any) error {
	public, err := p.CheckPublic(ctx, namespace)
	if err != nil {
		return err
	}
	if !public {
		return fmt.Errorf("configloader: namespace %s: %w", namespace, orcerr.ErrNotPermitted)
	}
	raw, err := connector.Encode(value)
	if err != nil {
		return fmt.Errorf("configloader: encode %s: %w", namespace, err)
	}
	if err := p.conn.Set(ctx, configKey(namespace), raw, 0); err != nil {
		return fmt.Errorf("configloader: set public %s: %w", namespace, err)
	}
	return nil
}

func (p *Persistent) GetPublic(ctx context.Context, namespace string) (any, error) {
	public, err := p.CheckPublic(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if !public {
		return nil, fmt.Errorf("configloader: namespace %s: %w", namespace, orcerr.ErrNotPermitted)
	}
	raw, err := p.conn.Get(ctx, configKey(namespace))
	if err != nil {
		return nil, fmt.Errorf("configloader: get public %s: %w", namespace, err)
	}
	if raw == nil {
		return nil, nil
	}
	var value any
	if err := connector.Decode(raw, &value); err != nil {
		return nil, fmt.Errorf("configloader: decode public %s: %w", namespace, err)
	}
	return value, nil
}

func (p *Persistent) GracefulShutdown(ctx context.Context) error {
	return p.conn.GracefulShutdown(ctx)
}
