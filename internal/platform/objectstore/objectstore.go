package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
)

var ErrInvalidKey = errors.New("invalid object key")

// BucketService stores uploaded files under slash-separated keys such as
// "labs/lab_1700000000000.pdf" and hands out URLs browsers can fetch.
type BucketService interface {
	UploadFile(dbc dbctx.Context, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, key string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	GetPublicURL(key string) string
	Mode() Mode
}

type Config struct {
	Mode Mode

	// local
	LocalDir       string
	LocalURLPrefix string

	// gcs
	Bucket          string
	PublicBaseURL   string
	EmulatorHost    string
	CredentialsJSON string
	CredentialsFile string
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeGCS:
		return ModeGCS, nil
	case ModeGCSEmulator, "gcs-emulator":
		return ModeGCSEmulator, nil
	default:
		return "", fmt.Errorf("unknown object storage mode %q (want local, gcs or gcs_emulator)", raw)
	}
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (BucketService, error) {
	switch cfg.Mode {
	case ModeLocal, "":
		return NewDiskBucketService(log, cfg.LocalDir, cfg.LocalURLPrefix)
	case ModeGCS, ModeGCSEmulator:
		return NewGCSBucketService(ctx, log, cfg)
	default:
		return nil, fmt.Errorf("unknown object storage mode %q", cfg.Mode)
	}
}

// CleanKey normalises a key and rejects anything that could escape the store root.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimLeft(k, "/")
	if k == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." || part == "." || part == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return path.Clean(k), nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch path.Ext(s) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".zip":
		return "application/zip"
	case ".java", ".txt", ".md":
		return "text/plain; charset=utf-8"
	default:
		return ""
	}
}

// LocalRoot is implemented by stores that keep objects on the local filesystem.
type LocalRoot interface {
	Root() string
}
