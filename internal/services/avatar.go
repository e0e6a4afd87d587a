package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/platform/objectstore"
)

const (
	AvatarModeDicebear  = "dicebear"
	AvatarModeGenerated = "generated"

	AvatarSize         = 256
	MaxAvatarBytes     = 5 << 20
	maxAvatarDimension = 8192

	dicebearURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

type AvatarService interface {
	// AssignDefault sets the avatar a new user starts with.
	AssignDefault(ctx context.Context, user *types.User) error
	// ReplaceFromImage stores a processed copy of raw and points user at it.
	ReplaceFromImage(ctx context.Context, user *types.User, raw []byte) error
	GenerateInitials(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	mode          string
	bucketService objectstore.BucketService
	bgColors      []color.NRGBA
	fontFace      font.Face
}

// Background palette for generated avatars.
var avatarColors = []color.NRGBA{
	{R: 0xE7, G: 0x6F, B: 0x51, A: 0xFF},
	{R: 0x2A, G: 0x9D, B: 0x8F, A: 0xFF},
	{R: 0x26, G: 0x46, B: 0x53, A: 0xFF},
	{R: 0xF4, G: 0xA2, B: 0x61, A: 0xFF},
	{R: 0x5E, G: 0x60, B: 0xCE, A: 0xFF},
	{R: 0x8A, G: 0xB1, B: 0x7D, A: 0xFF},
	{R: 0xB5, G: 0x83, B: 0x8D, A: 0xFF},
	{R: 0x3D, G: 0x5A, B: 0x80, A: 0xFF},
}

func NewAvatarService(log *logger.Logger, mode string, bucketService objectstore.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		mode = AvatarModeDicebear
	case AvatarModeDicebear, AvatarModeGenerated:
	default:
		return nil, fmt.Errorf("unknown avatar mode %q (want dicebear or generated)", mode)
	}
	if mode == AvatarModeGenerated && bucketService == nil {
		return nil, fmt.Errorf("generated avatars need an object store")
	}

	face, err := loadFontFace(goregular.TTF, 104)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		mode:          mode,
		bucketService: bucketService,
		bgColors:      avatarColors,
		fontFace:      face,
	}, nil
}

func (as *avatarService) AssignDefault(ctx context.Context, user *types.User) error {
	if user == nil {
		return fmt.Errorf("user required")
	}
	if as.mode == AvatarModeDicebear {
		user.Avatar = DicebearURL(user.Username)
		return nil
	}

	buf, err := as.GenerateInitials(user)
	if err != nil {
		return err
	}
	return as.store(ctx, user, buf.Bytes())
}

func (as *avatarService) ReplaceFromImage(ctx context.Context, user *types.User, raw []byte) error {
	if user == nil {
		return fmt.Errorf("user required")
	}
	if as.bucketService == nil {
		return fmt.Errorf("avatar uploads need an object store")
	}
	if len(raw) > MaxAvatarBytes {
		return apierr.BadRequest("avatar_too_large", "Avatar must be 5 MB or smaller")
	}
	processed, err := processUploadedAvatar(raw, AvatarSize)
	if err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_image", err)
	}
	return as.store(ctx, user, processed.Bytes())
}

// store uploads under a versioned key so caches never serve the old image,
// then drops the previous object.
func (as *avatarService) store(ctx context.Context, user *types.User, png []byte) error {
	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	newKey := fmt.Sprintf("avatars/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if err := as.bucketService.UploadFile(dbctx.Context{Ctx: ctx}, newKey, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	user.AvatarBucketKey = newKey
	user.Avatar = as.bucketService.GetPublicURL(newKey)

	if oldKey != "" && oldKey != newKey {
		if err := as.bucketService.DeleteFile(dbctx.Context{Ctx: ctx}, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateInitials(user *types.User) (bytes.Buffer, error) {
	const size = AvatarSize
	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.colorFor(user.Username))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(user.Username), float64(size)/2, float64(size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) colorFor(username string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(username)))
	return as.bgColors[int(h.Sum32()%uint32(len(as.bgColors)))]
}

func DicebearURL(username string) string {
	return dicebearURL + url.QueryEscape(username)
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width > maxAvatarDimension || cfg.Height > maxAvatarDimension {
		return out, fmt.Errorf("image is %dx%d, max %d per side", cfg.Width, cfg.Height, maxAvatarDimension)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

// computeInitials takes the first letter of the first two name parts, or the
// first two letters of a single-part name.
func computeInitials(username string) string {
	parts := strings.FieldsFunc(username, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		r := []rune(parts[0])
		if len(r) == 1 {
			return strings.ToUpper(string(r))
		}
		return strings.ToUpper(string(r[:2]))
	default:
		a, b := []rune(parts[0]), []rune(parts[1])
		return strings.ToUpper(string(a[0]) + string(b[0]))
	}
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
