package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestShardPath(t *testing.T) {
	tests := []struct {
		title   string
		ext     string
		want    string
		wantErr bool
	}{
		{"abc123", "jpg", "a/b/c/abc123.jpg", false},
		{"abc123", ".jpeg", "a/b/c/abc123.jpeg", false},
		{"f00dcafe", "jpg", "f/0/0/f00dcafe.jpg", false},
		{"ab", "jpg", "", true},
		{"../x", "jpg", "", true},
		{"abc", "", "", true},
		{"abc", "tar.gz", "", true},
	}
	for _, tt := range tests {
		got, err := ShardPath(tt.title, tt.ext)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ShardPath(%q, %q) expected error, got %q", tt.title, tt.ext, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ShardPath(%q, %q) unexpected error: %v", tt.title, tt.ext, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ShardPath(%q, %q) = %q, want %q", tt.title, tt.ext, got, tt.want)
		}
	}
}

func TestCleanKey(t *testing.T) {
	bad := []string{"", "/etc/passwd", "../secret", "a/../../b", "..", `a\b`}
	for _, k := range bad {
		if _, err := CleanKey(k); err == nil {
			t.Errorf("CleanKey(%q) expected error", k)
		}
	}
	got, err := CleanKey("a/b/../b/c.jpg")
	if err != nil || got != "a/b/c.jpg" {
		t.Errorf("CleanKey returned %q, %v", got, err)
	}
}

func TestDirPutGetDelete(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir failed: %v", err)
	}
	ctx := context.Background()
	data := []byte("jpeg bytes")

	if err := d.Put(ctx, "a/b/c/abc123.jpg", data, "image/jpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a", "b", "c", "abc123.jpg")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	got, err := d.Get(ctx, "a/b/c/abc123.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("unexpected content %q", got)
	}

	if err := d.Delete(ctx, "a/b/c/abc123.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := d.Get(ctx, "a/b/c/abc123.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := d.Delete(ctx, "a/b/c/abc123.jpg"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestDirRejectsTraversal(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir failed: %v", err)
	}
	if err := d.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}
