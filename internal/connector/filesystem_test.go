package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSystemDirectoryHashing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "fsconn-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	conn, err := NewFileSystem(tempDir)
	if err != nil {
		t.Fatalf("failed to create connector: %v", err)
	}

	ctx := context.Background()
	key := "tasker.tasks.abcdef123456"
	content := []byte("test content")

	if err := conn.Set(ctx, key, content, 0); err != nil {
		t.Errorf("set failed: %v", err)
	}

	expectedSubPath := filepath.Join("ta", "sk", key)
	fullPath := filepath.Join(tempDir, expectedSubPath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		t.Errorf("file not found at hashed path: %s", fullPath)
	}

	got, err := conn.Get(ctx, key)
	if err != nil {
		t.Errorf("get failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("expected %q, got %q", content, got)
	}

	n, err := conn.Delete(ctx, key)
	if err != nil {
		t.Errorf("delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Error("file still exists after deletion")
	}
}

func TestFileSystemExpiry(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "fsconn-expiry-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	conn, err := NewFileSystem(tempDir)
	if err != nil {
		t.Fatalf("failed to create connector: %v", err)
	}

	ctx := context.Background()
	if err := conn.Set(ctx, "short-lived", []byte("gone soon"), 1); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	got, err := conn.Get(ctx, "short-lived")
	if err != nil {
		t.Errorf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired key to read as nil, got %q", got)
	}
}

func TestFileSystemKeysGlob(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "fsconn-keys-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	conn, err := NewFileSystem(tempDir)
	if err != nil {
		t.Fatalf("failed to create connector: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"tasker.tasks.a", "tasker.tasks.b", "config.other"} {
		if err := conn.Set(ctx, key, []byte("v"), 0); err != nil {
			t.Fatalf("set %s failed: %v", key, err)
		}
	}

	keys, err := conn.Keys(ctx, "tasker.tasks.*")
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d: %v", len(keys), keys)
	}
}
