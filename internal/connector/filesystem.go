package connector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	conductor.Register(conductor.RoleStorage, "fs", func(bag conductor.Bag) (any, error) {
		return NewFileSystem(bagString(bag, "base_dir", "./orchestrator-data"))
	})
}

// FileSystem is a local-disk Connector backend using a hashed directory
// layout so no single directory ends up holding every stored key. No
// third-party library is wired here: disk I/O at this scale has no
// ecosystem library worth reaching for over the standard library.
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates baseDir if needed and returns a FileSystem
// Connector rooted there.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("connector: fs create base dir %s: %w: %w", baseDir, orcerr.ErrConnectorInitFail, err)
	}
	return &FileSystem{baseDir: baseDir}, nil
}

// hashedPath splits key across a two-level directory prefix so no
// single directory ends up holding every stored key.
func (f *FileSystem) hashedPath(key string) string {
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	if len(safe) < 4 {
		return safe
	}
	return filepath.Join(safe[0:2], safe[2:4], safe)
}

func (f *FileSystem) valuePath(key string) string {
	return filepath.Join(f.baseDir, f.hashedPath(key))
}

func (f *FileSystem) expiryPath(key string) string {
	return f.valuePath(key) + ".expires"
}

func (f *FileSystem) Get(_ context.Context, key string) ([]byte, error) {
	if expires, err := os.ReadFile(f.expiryPath(key)); err == nil {
		if unix, err := strconv.ParseInt(strings.TrimSpace(string(expires)), 10, 64); err == nil {
			if time.Now().After(time.Unix(unix, 0)) {
				return nil, nil
			}
		}
	}
	data, err := os.ReadFile(f.valuePath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connector: fs get %q: %w", key, err)
	}
	return data, nil
}

func (f *FileSystem) Set(_ context.Context, key string, value []byte, ex int) error {
	path := f.valuePath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("connector: fs mkdir for %q: %w", key, err)
	}
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("connector: fs set %q: %w", key, err)
	}
	if ex > 0 {
		expiresAt := time.Now().Add(time.Duration(ex) * time.Second).Unix()
		if err := os.WriteFile(f.expiryPath(key), []byte(strconv.FormatInt(expiresAt, 10)), 0o644); err != nil {
			return fmt.Errorf("connector: fs set expiry %q: %w", key, err)
		}
	} else {
		_ = os.Remove(f.expiryPath(key))
	}
	return nil
}

func (f *FileSystem) Delete(_ context.Context, key string) (int, error) {
	err := os.Remove(f.valuePath(key))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("connector: fs delete %q: %w", key, err)
	}
	_ = os.Remove(f.expiryPath(key))
	return 1, nil
}

func (f *FileSystem) Keys(_ context.Context, pattern string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".expires") {
			return nil
		}
		key := filepath.Base(path)
		ok, err := filepath.Match(pattern, key)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connector: fs keys: %w", err)
	}
	return out, nil
}

func (f *FileSystem) GracefulShutdown(_ context.Context) error {
	return nil
}
