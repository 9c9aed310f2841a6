// Package blob stores machine and location images in Google Cloud Storage or
// on local disk.
package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"arcade-inventory-backend/config"
)

var (
	ErrUnsupportedType    = errors.New("unsupported image type")
	ErrTooLarge           = errors.New("file exceeds the upload size limit")
	ErrUnknownFolder      = errors.New("unknown upload folder")
	ErrSigningUnsupported = errors.New("storage provider does not support signed uploads")
)

// Upload folders.
const (
	FolderMachines  = "machines"
	FolderLocations = "locations"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var typesByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// SignedUpload is a pre-signed direct upload.
type SignedUpload struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Store is an object store for images.
type Store interface {
	// SignUpload returns a URL the browser can PUT the object to directly.
	SignUpload(ctx context.Context, key, contentType string) (*SignedUpload, error)
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
	// KeyFromURL maps a public URL back to its key. It reports false for
	// URLs this store did not hand out.
	KeyFromURL(rawURL string) (string, bool)
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Provider {
	case "gcs":
		return NewGCSStore(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

// ContentType resolves the image type of an upload from its declared content
// type, falling back to the file extension.
func ContentType(contentType, fileName string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = typesByExtension[strings.ToLower(path.Ext(fileName))]
	}
	if _, ok := extensions[ct]; !ok {
		return "", ErrUnsupportedType
	}
	if ext := strings.ToLower(path.Ext(fileName)); ext != "" {
		if _, ok := typesByExtension[ext]; !ok {
			return "", ErrUnsupportedType
		}
	}
	return ct, nil
}

// Validate checks an upload's type and size against the limit.
func Validate(contentType, fileName string, size, maxBytes int64) (string, error) {
	ct, err := ContentType(contentType, fileName)
	if err != nil {
		return "", err
	}
	if size <= 0 || size > maxBytes {
		return "", ErrTooLarge
	}
	return ct, nil
}

// ExtensionFor returns the file extension for an accepted content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

// ObjectKey builds the key {folder}/{id}/{unixMillis}.{ext}.
func ObjectKey(folder string, id uint, contentType string, now time.Time) (string, error) {
	if folder != FolderMachines && folder != FolderLocations {
		return "", ErrUnknownFolder
	}
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("%s/%d/%d.%s", folder, id, now.UnixMilli(), ext), nil
}

// DeleteByURL removes the object behind a stored URL. Failures are logged and
// swallowed; URLs that belong elsewhere are left alone.
func DeleteByURL(ctx context.Context, s Store, log *zap.Logger, rawURL string) {
	if rawURL == "" {
		return
	}
	key, ok := s.KeyFromURL(rawURL)
	if !ok {
		log.Debug("image url not managed by this store; leaving it", zap.String("url", rawURL))
		return
	}
	if err := s.Delete(ctx, key); err != nil {
		log.Warn("failed to delete image", zap.String("key", key), zap.Error(err))
	}
}

func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "..") && !strings.HasPrefix(key, "/")
}
