package file_store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrObjectExists is returned by Store when an object already exists under
// the key. Callers may treat it as a successful, duplicate upload.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned by Fetch for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// MediaFileStore is the object storage holding media binaries.
type MediaFileStore interface {
	// Store uploads data under key, it never overwrites an existing object.
	Store(ctx context.Context, key string, data []byte, contentType string) error
	// Fetch returns the content and content type of key.
	Fetch(ctx context.Context, key string) ([]byte, string, error)
	// Delete removes key, deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// GetUrlFromKey returns the direct url of key.
	GetUrlFromKey(key string) string
	// GetPublicUrlFromKey returns the public url of key.
	GetPublicUrlFromKey(key string) string
	// KeyFromUrl is the inverse of GetPublicUrlFromKey.
	KeyFromUrl(publicUrl string) (string, bool)
}

// PublicObjectUrl builds {base}/storage/v1/object/public/{bucket}/{key}.
func PublicObjectUrl(baseUrl, bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(baseUrl, "/"), bucket, escapeKey(key))
}

// KeyFromPublicUrl extracts the object key from a url built by
// PublicObjectUrl, ok is false for any other url.
func KeyFromPublicUrl(rawUrl, bucket string) (key string, ok bool) {
	marker := "/storage/v1/object/public/" + bucket + "/"
	i := strings.Index(rawUrl, marker)
	if i < 0 {
		return "", false
	}
	key, err := url.PathUnescape(rawUrl[i+len(marker):])
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
