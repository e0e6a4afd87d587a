package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/platform/objectstore"
)

const MaxUploadBytes = 10 << 20

type UploadService interface {
	// UploadLabFile stores a lab attachment and returns the URL to fetch it from.
	UploadLabFile(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
}

type uploadService struct {
	log           *logger.Logger
	bucketService objectstore.BucketService
	now           func() time.Time
}

func NewUploadService(log *logger.Logger, bucketService objectstore.BucketService) UploadService {
	return &uploadService{
		log:           log.With("service", "UploadService"),
		bucketService: bucketService,
		now:           time.Now,
	}
}

func (us *uploadService) UploadLabFile(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if r == nil {
		return "", apierr.BadRequest("no_file", "No file uploaded")
	}
	if size > MaxUploadBytes {
		return "", apierr.BadRequest("file_too_large", "File must be 10 MB or smaller")
	}
	key := fmt.Sprintf("labs/lab_%d%s", us.now().UnixMilli(), safeExt(filename))

	lr := &limitedReader{r: r, remaining: MaxUploadBytes}
	if err := us.bucketService.UploadFile(dbctx.Context{Ctx: ctx}, key, lr); err != nil {
		if lr.exceeded {
			return "", apierr.BadRequest("file_too_large", "File must be 10 MB or smaller")
		}
		return "", fmt.Errorf("store upload: %w", err)
	}
	url := us.bucketService.GetPublicURL(key)
	us.log.Info("Lab file uploaded", "key", key)
	return url, nil
}

// safeExt keeps a short alphanumeric extension and drops anything else.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

var errUploadTooLarge = fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)

type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		l.exceeded = true
		return 0, errUploadTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errUploadTooLarge
	}
	return n, err
}
