package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type diskBucketService struct {
	log       *logger.Logger
	root      string
	urlPrefix string
}

// NewDiskBucketService keeps objects under root; the router serves root at urlPrefix.
func NewDiskBucketService(log *logger.Logger, root, urlPrefix string) (BucketService, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local object storage needs a directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", abs, err)
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(urlPrefix), "/")
	if prefix == "/" {
		prefix = "/uploads"
	}
	serviceLog := log.With("service", "DiskBucketService")
	serviceLog.Info("Object storage initialized", "mode", ModeLocal, "dir", abs, "url_prefix", prefix)
	return &diskBucketService{log: serviceLog, root: abs, urlPrefix: prefix}, nil
}

func (d *diskBucketService) Mode() Mode { return ModeLocal }

func (d *diskBucketService) pathFor(key string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func (d *diskBucketService) UploadFile(dbc dbctx.Context, key string, file io.Reader) error {
	p, err := d.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	if _, err := io.Copy(tmp, &ctxReader{ctx: dbc.Ctx, r: file}); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close object %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit object %q: %w", key, err)
	}
	return nil
}

func (d *diskBucketService) DeleteFile(dbc dbctx.Context, key string) error {
	p, err := d.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (d *diskBucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := d.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return f, nil
}

func (d *diskBucketService) GetPublicURL(key string) string {
	k, err := CleanKey(key)
	if err != nil {
		return ""
	}
	return d.urlPrefix + "/" + k
}

// Root is the directory the router should serve at the URL prefix.
func (d *diskBucketService) Root() string { return d.root }

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if c.ctx != nil {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
	}
	return c.r.Read(p)
}
