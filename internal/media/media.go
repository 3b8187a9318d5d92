// Package media stores item photos in an afs-backed blob store. Production
// deployments use a file:// (or any other afs-supported) base URL; tests use
// mem://.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// ItemImagePrefix is the key prefix of every item photo.
const ItemImagePrefix = "item_images/"

// ErrNotFound is returned by Get for keys with no stored object.
var ErrNotFound = errors.New("media not found")

// ErrInvalidKey is returned for keys outside the media namespace.
var ErrInvalidKey = errors.New("invalid media key")

// Store reads and writes blobs under a base URL.
type Store struct {
	fs      afs.Service
	baseURL string
}

// New creates a store rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ItemImageKey returns the key under which an item's photo is stored.
func ItemImageKey(itemUUID string) string {
	return ItemImagePrefix + itemUUID + ".jpg"
}

// ValidKey reports whether key names an object this store may serve.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, ItemImagePrefix) || len(key) == len(ItemImagePrefix) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return false
	}
	return path.Clean(key) == key
}

func (s *Store) url(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return url.Join(s.baseURL, key), nil
}

// Put stores data under key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	u, err := s.url(key)
	if err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, u, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// Get returns the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	u, err := s.url(key)
	if err != nil {
		return nil, err
	}
	ok, err := s.fs.Exists(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	u, err := s.url(key)
	if err != nil {
		return err
	}
	ok, err := s.fs.Exists(ctx, u)
	if err != nil {
		return fmt.Errorf("checking %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := s.fs.Delete(ctx, u); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
