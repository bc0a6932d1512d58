// Package objectstore holds uploaded receipts and avatars.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid object key")

// Store uploads objects and resolves their public URL.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PublicURL(key string) string
}

// ReceiptKey builds receipts/<userID>/<uuid>-<name>. Every upload gets a fresh key.
func ReceiptKey(userID, filename string) string {
	return path.Join("receipts", userID, uuid.NewString()+"-"+sanitize(filename))
}

// AvatarKey builds avatars/<userID>/avatar.<ext>; a new upload overwrites the old one.
func AvatarKey(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return path.Join("avatars", userID, "avatar."+sanitize(ext))
}

// ValidateKey rejects empty, absolute and parent-escaping keys.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// sanitize keeps a filename's base and replaces characters unsafe in URLs.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
