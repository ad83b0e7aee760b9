// Package media stores resampled photo bytes under a sharded key layout.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrNotFound = errors.New("media object not found")

// Store holds media objects addressed by slash-separated relative keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ShardPath nests a file three directory levels deep using the first three
// characters of title, e.g. "abc123" and "jpg" give "a/b/c/abc123.jpg".
// Keeps any single directory small when the catalog grows.
func ShardPath(title, ext string) (string, error) {
	if len(title) < 3 {
		return "", fmt.Errorf("title %q too short to shard", title)
	}
	if strings.ContainsAny(title, `/\.`) {
		return "", fmt.Errorf("title %q contains path characters", title)
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		return "", fmt.Errorf("invalid extension %q", ext)
	}
	return path.Join(title[0:1], title[1:2], title[2:3], title+"."+ext), nil
}

// CleanKey rejects absolute keys and keys that escape the store root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return cleaned, nil
}
