package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"labs/lab_1.pdf":   "labs/lab_1.pdf",
		"/avatars/u/1.png": "avatars/u/1.png",
		"  labs\\a.png  ":  "labs/a.png",
		"":                 "",
		"../etc/passwd":    "",
		"labs/../../x":     "",
		"labs//double.png": "",
		"labs/./here.png":  "",
	}
	for in, want := range cases {
		got, err := CleanKey(in)
		if want == "" {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q): expected ErrInvalidKey, got %q err=%v", in, got, err)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("CleanKey(%q): got=%q err=%v want=%q", in, got, err, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"": ModeLocal, "LOCAL": ModeLocal, "gcs": ModeGCS, "gcs-emulator": ModeGCSEmulator} {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q): got=%q err=%v", raw, got, err)
		}
	}
	if _, err := ParseMode("s3"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := contentTypeForKey("labs/lab_1.PDF"); got != "application/pdf" {
		t.Fatalf("pdf: %q", got)
	}
	if got := contentTypeForKey("avatars/u/1.png?v=2"); got != "image/png" {
		t.Fatalf("png with query: %q", got)
	}
	if got := contentTypeForKey("x.bin"); got != "" {
		t.Fatalf("unknown: %q", got)
	}
}

func TestPublicObjectURL(t *testing.T) {
	if got := publicObjectURL(ModeGCS, "", "bkt", "labs/a.pdf"); got != "https://storage.googleapis.com/bkt/labs/a.pdf" {
		t.Fatalf("default: %s", got)
	}
	if got := publicObjectURL(ModeGCS, "https://cdn.example.com", "bkt", "labs/a.pdf"); got != "https://cdn.example.com/bkt/labs/a.pdf" {
		t.Fatalf("base: %s", got)
	}
	got := publicObjectURL(ModeGCSEmulator, "http://localhost:4443", "bkt", "labs/a.pdf")
	if got != "http://localhost:4443/storage/v1/b/bkt/o/labs%2Fa.pdf?alt=media" {
		t.Fatalf("emulator: %s", got)
	}
}

func TestResolvePublicBaseURL(t *testing.T) {
	if _, err := resolvePublicBaseURL(Config{PublicBaseURL: "not a url"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
	got, err := resolvePublicBaseURL(Config{Mode: ModeGCSEmulator, EmulatorHost: "http://localhost:4443/"})
	if err != nil || got != "http://localhost:4443" {
		t.Fatalf("emulator fallback: got=%q err=%v", got, err)
	}
}

func TestDiskBucketServiceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskBucketService(testLogger(t), dir, "uploads")
	if err != nil {
		t.Fatalf("NewDiskBucketService: %v", err)
	}
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := store.UploadFile(dbc, "labs/lab_1.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "labs", "lab_1.pdf")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if got := store.GetPublicURL("labs/lab_1.pdf"); got != "/uploads/labs/lab_1.pdf" {
		t.Fatalf("GetPublicURL: %q", got)
	}

	rc, err := store.DownloadFile(context.Background(), "labs/lab_1.pdf")
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "%PDF-1.4" {
		t.Fatalf("DownloadFile body: %q", body)
	}

	if err := store.DeleteFile(dbc, "labs/lab_1.pdf"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := store.DeleteFile(dbc, "labs/lab_1.pdf"); err != nil {
		t.Fatalf("DeleteFile missing should be a no-op: %v", err)
	}
	if err := store.UploadFile(dbc, "../escape.txt", strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if root, ok := store.(LocalRoot); !ok || root.Root() == "" {
		t.Fatalf("disk store should expose its root")
	}
}

func TestDiskBucketServiceHonoursCanceledContext(t *testing.T) {
	store, err := NewDiskBucketService(testLogger(t), t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDiskBucketService: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.UploadFile(dbctx.Context{Ctx: ctx}, "labs/x.txt", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeObjectWriter struct {
	ctx       context.Context
	key       string
	buf       strings.Builder
	closed    bool
	committed bool
}

func (f *fakeObjectWriter) Write(p []byte) (int, error) { return f.buf.Write(p) }

// Close mirrors storage.Writer: the object is committed only when the writer's
// context is still live.
func (f *fakeObjectWriter) Close() error {
	f.closed = true
	if err := f.ctx.Err(); err != nil {
		return err
	}
	f.committed = true
	return nil
}

func newFakeGCS(t *testing.T, fw *fakeObjectWriter) *gcsBucketService {
	t.Helper()
	return &gcsBucketService{
		log:    testLogger(t),
		mode:   ModeGCS,
		bucket: "javuy-test",
		newWriter: func(ctx context.Context, key string) objectWriter {
			fw.ctx = ctx
			fw.key = key
			return fw
		},
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestGCSUploadFileCommitsObject(t *testing.T) {
	fw := &fakeObjectWriter{}
	g := newFakeGCS(t, fw)
	if err := g.UploadFile(dbctx.Context{Ctx: context.Background()}, "/labs/lab_1.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if fw.key != "labs/lab_1.pdf" || fw.buf.String() != "%PDF-1.4" {
		t.Fatalf("wrote key=%q body=%q", fw.key, fw.buf.String())
	}
	if !fw.committed {
		t.Fatalf("object was not committed")
	}
}

func TestGCSUploadFileAbortsOnReadError(t *testing.T) {
	fw := &fakeObjectWriter{}
	g := newFakeGCS(t, fw)
	tooLarge := errors.New("upload exceeds limit")
	body := io.MultiReader(strings.NewReader("partial bytes"), failingReader{err: tooLarge})

	err := g.UploadFile(dbctx.Context{Ctx: context.Background()}, "labs/lab_2.bin", body)
	if !errors.Is(err, tooLarge) {
		t.Fatalf("expected read error to surface, got %v", err)
	}
	if !fw.closed {
		t.Fatalf("writer was not closed")
	}
	if fw.committed {
		t.Fatalf("partial object was committed")
	}
}
