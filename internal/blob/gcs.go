package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"arcade-inventory-backend/config"
)

// GCSStore keeps objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client    *storage.Client
	bucket    string
	baseURL   string
	signedTTL time.Duration
	now       func() time.Time

	// explicit signer from the service account JSON, if one was given
	accessID   string
	privateKey []byte
}

type serviceAccountJSON struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewGCSStore connects to GCS. Explicit credentials JSON wins over
// application default credentials.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return newGCSStore(client, cfg)
}

func newGCSStore(client *storage.Client, cfg config.StorageConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	s := &GCSStore{
		client:    client,
		bucket:    cfg.Bucket,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		signedTTL: time.Duration(cfg.SignedURLTTLMinutes) * time.Minute,
		now:       time.Now,
	}
	if s.baseURL == "" {
		s.baseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}
	if s.signedTTL <= 0 {
		s.signedTTL = 15 * time.Minute
	}

	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		var key serviceAccountJSON
		if err := json.Unmarshal([]byte(creds), &key); err != nil {
			return nil, fmt.Errorf("invalid gcs credentials json: %w", err)
		}
		if key.ClientEmail != "" && key.PrivateKey != "" {
			s.accessID = key.ClientEmail
			s.privateKey = []byte(strings.ReplaceAll(key.PrivateKey, `\n`, "\n"))
		}
	}
	return s, nil
}

// SignUpload returns a V4 signed PUT URL for key.
func (s *GCSStore) SignUpload(ctx context.Context, key, contentType string) (*SignedUpload, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("invalid object key %q", key)
	}
	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		Expires:     s.now().Add(s.signedTTL),
		ContentType: contentType,
	}

	var (
		signed string
		err    error
	)
	if s.privateKey != nil {
		opts.GoogleAccessID = s.accessID
		opts.PrivateKey = s.privateKey
		signed, err = storage.SignedURL(s.bucket, key, opts)
	} else {
		signed, err = s.client.Bucket(s.bucket).SignedURL(key, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("sign upload for %s: %w", key, err)
	}

	return &SignedUpload{
		UploadURL: signed,
		Method:    opts.Method,
		Headers:   map[string]string{"Content-Type": contentType},
		ObjectKey: key,
		AccessURL: s.URL(key),
		ExpiresAt: opts.Expires,
	}, nil
}

// Put uploads data and returns its public URL.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=31536000"

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to upload %s to gcs: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close gcs writer for %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes key; a missing object is fine.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s from gcs: %w", key, err)
	}
	return nil
}

func (s *GCSStore) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *GCSStore) KeyFromURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	var key string
	switch {
	case strings.HasPrefix(rawURL, s.baseURL+"/"):
		key = strings.TrimPrefix(rawURL, s.baseURL+"/")
	case strings.HasPrefix(rawURL, "gs://"+s.bucket+"/"):
		key = strings.TrimPrefix(rawURL, "gs://"+s.bucket+"/")
	default:
		return "", false
	}
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, validKey(key)
}

// Close releases the GCS client.
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
