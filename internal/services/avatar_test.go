package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/javuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/javuy-backend/internal/domain"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAvatarDicebearDefault(t *testing.T) {
	env := newTestEnv(t)
	u := &types.User{ID: uuid.New(), Username: "ada lovelace"}

	require.NoError(t, env.avatar.AssignDefault(context.Background(), u))
	require.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=ada+lovelace", u.Avatar)
	require.Empty(t, u.AvatarBucketKey)
}

func TestAvatarGeneratedDefaultUploadsPNG(t *testing.T) {
	env := newTestEnv(t)
	svc, err := NewAvatarService(testutil.Logger(t), AvatarModeGenerated, env.bucket)
	require.NoError(t, err)

	u := &types.User{ID: uuid.New(), Username: "grace"}
	require.NoError(t, svc.AssignDefault(context.Background(), u))
	require.True(t, strings.HasPrefix(u.AvatarBucketKey, "avatars/"+u.ID.String()+"/"))
	require.Equal(t, "/uploads/"+u.AvatarBucketKey, u.Avatar)

	rc, err := env.bucket.DownloadFile(context.Background(), u.AvatarBucketKey)
	require.NoError(t, err)
	defer rc.Close()
	cfg, err := png.DecodeConfig(rc)
	require.NoError(t, err)
	require.Equal(t, AvatarSize, cfg.Width)
	require.Equal(t, AvatarSize, cfg.Height)
}

func TestAvatarReplaceCropsAndDropsOldObject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := &types.User{ID: uuid.New(), Username: "linus"}

	require.NoError(t, env.avatar.ReplaceFromImage(ctx, u, encodePNG(t, 40, 20)))
	firstKey := u.AvatarBucketKey
	require.NotEmpty(t, firstKey)

	require.NoError(t, env.avatar.ReplaceFromImage(ctx, u, encodePNG(t, 20, 40)))
	require.NotEqual(t, firstKey, u.AvatarBucketKey)

	_, err := env.bucket.DownloadFile(ctx, firstKey)
	require.Error(t, err)
}

func TestAvatarReplaceRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := &types.User{ID: uuid.New(), Username: "bob"}

	err := env.avatar.ReplaceFromImage(ctx, u, []byte("not an image"))
	requireAPIError(t, err, http.StatusBadRequest, "invalid_image")

	err = env.avatar.ReplaceFromImage(ctx, u, make([]byte, MaxAvatarBytes+1))
	requireAPIError(t, err, http.StatusBadRequest, "avatar_too_large")
}

func TestNewAvatarServiceRejectsUnknownMode(t *testing.T) {
	_, err := NewAvatarService(testutil.Logger(t), "gravatar", nil)
	require.Error(t, err)

	_, err = NewAvatarService(testutil.Logger(t), AvatarModeGenerated, nil)
	require.Error(t, err)
}

func TestComputeInitials(t *testing.T) {
	cases := map[string]string{
		"ada":          "AD",
		"a":            "A",
		"ada_lovelace": "AL",
		"j.doe-smith":  "JD",
		"__":           "?",
	}
	for in, want := range cases {
		if got := computeInitials(in); got != want {
			t.Fatalf("computeInitials(%q)=%q want %q", in, got, want)
		}
	}
}
