// Package storage persists uploaded files and resolves their public URLs.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
)

// FileStore stores opaque bytes and hands back a durable reference.
type FileStore interface {
	Store(ctx context.Context, data []byte, pathHint string) (string, error)
	Delete(ctx context.Context, ref string) (bool, error)
	URL(ref string) string
}

// LocalStore writes files below a root directory. References are slash
// separated paths relative to that root.
type LocalStore struct {
	root    string
	baseURL string
	now     func() time.Time
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating storage root: %v", domain.ErrStorage, err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Store writes data under a reference derived from pathHint. The reference is
// made unique so callers never overwrite each other.
func (s *LocalStore) Store(ctx context.Context, data []byte, pathHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref, err := s.reference(pathHint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%w: creating directory: %v", domain.ErrStorage, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing file: %v", domain.ErrStorage, err)
	}

	slog.DebugContext(ctx, "file stored", "ref", ref, "size", len(data))
	return ref, nil
}

// Delete removes a stored file and reports whether it existed.
func (s *LocalStore) Delete(ctx context.Context, ref string) (bool, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return false, err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: removing file: %v", domain.ErrStorage, err)
	}
	return true, nil
}

// URL returns the public address of ref. External references are returned
// untouched.
func (s *LocalStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}

// InDir reports whether ref names a file stored with a path hint below dir,
// with or without the YYYY/MM prefix LocalStore adds. External URLs and
// references escaping dir never match.
func InDir(ref, dir string) bool {
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" {
		return false
	}
	prefix := strings.Trim(path.Clean("/"+dir), "/") + "/"
	if prefix == "/" {
		return false
	}
	clean := strings.TrimPrefix(path.Clean("/"+ref), "/")
	if strings.HasPrefix(clean, prefix) {
		return true
	}
	parts := strings.SplitN(clean, "/", 3)
	return len(parts) == 3 &&
		isDigits(parts[0], 4) && isDigits(parts[1], 2) &&
		strings.HasPrefix(parts[2], prefix)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *LocalStore) reference(hint string) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating file name: %w", err)
	}

	clean := path.Clean("/" + filepath.ToSlash(hint))
	dir, name := path.Split(clean)
	if name == "" || name == "/" {
		name = "file"
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := s.now().UTC().Format("2006/01")

	return strings.TrimLeft(path.Join(stamp, dir, base+"-"+hex.EncodeToString(suffix)+ext), "/"), nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if clean == "/" {
		return "", fmt.Errorf("%w: empty file reference", domain.ErrStorage)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
