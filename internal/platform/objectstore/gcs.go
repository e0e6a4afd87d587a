package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type gcsBucketService struct {
	log           *logger.Logger
	client        *storage.Client
	mode          Mode
	bucket        string
	publicBaseURL string
	emulatorHost  string

	newWriter func(ctx context.Context, key string) objectWriter
}

// objectWriter is the subset of *storage.Writer used by UploadFile. Close
// commits the object unless ctx was cancelled first.
type objectWriter interface {
	io.Writer
	Close() error
}

func NewGCSBucketService(ctx context.Context, log *logger.Logger, cfg Config) (BucketService, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	publicBase, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog := log.With("service", "GCSBucketService")
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"bucket", bucket,
		"emulator_host", cfg.EmulatorHost,
		"public_base_url", publicBase,
	)
	g := &gcsBucketService{
		log:           serviceLog,
		client:        client,
		mode:          cfg.Mode,
		bucket:        bucket,
		publicBaseURL: publicBase,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
	}
	g.newWriter = g.storageWriter
	return g, nil
}

func (g *gcsBucketService) storageWriter(ctx context.Context, key string) objectWriter {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	return w
}

func newStorageClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	if cfg.Mode == ModeGCSEmulator {
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		if endpoint == "" {
			return nil, fmt.Errorf("gcs_emulator mode needs STORAGE_EMULATOR_HOST")
		}
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := clientOptions(cfg)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func clientOptions(cfg Config) []option.ClientOption {
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

func resolvePublicBaseURL(cfg Config) (string, error) {
	raw := strings.TrimSpace(cfg.PublicBaseURL)
	if raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL", raw)
		}
		return strings.TrimRight(raw, "/"), nil
	}
	if cfg.Mode == ModeGCSEmulator {
		return strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"), nil
	}
	return "", nil
}

func (g *gcsBucketService) Mode() Mode { return g.mode }

func (g *gcsBucketService) UploadFile(dbc dbctx.Context, key string, file io.Reader) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(dbc.Ctx), 2*time.Minute)
	defer cancel()

	w := g.newWriter(ctx, k)
	if _, err := io.Copy(w, file); err != nil {
		// Cancel first so Close aborts the upload instead of committing a
		// partial object.
		cancel()
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (g *gcsBucketService) DeleteFile(dbc dbctx.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(dbc.Ctx), 30*time.Second)
	defer cancel()
	if err := g.client.Bucket(g.bucket).Object(k).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", k, g.bucket, err)
	}
	return nil
}

func (g *gcsBucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	// The reader outlives this call, so cancel is tied to Close.
	ctx2, cancel := context.WithTimeout(ctxutil.Default(ctx), 2*time.Minute)
	r, err := g.client.Bucket(g.bucket).Object(k).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (g *gcsBucketService) GetPublicURL(key string) string {
	k, err := CleanKey(key)
	if err != nil {
		return ""
	}
	return publicObjectURL(g.mode, g.publicBaseURL, g.bucket, k)
}

func publicObjectURL(mode Mode, base, bucket, key string) string {
	if mode == ModeGCSEmulator && base != "" {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
	}
	if base != "" {
		return fmt.Sprintf("%s/%s/%s", base, bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
