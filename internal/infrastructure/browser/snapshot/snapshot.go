package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"browsertools/internal/domain/entity"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth = 1024
	jpegQuality     = 75
)

// Encode decodes a PNG or JPEG capture, shrinks it to maxWidth keeping the
// aspect ratio and re-encodes it as JPEG.
func Encode(raw []byte, maxWidth int) (*entity.Screenshot, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
