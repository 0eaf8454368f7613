package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultIconSize is the edge length of stored badge icons.
const DefaultIconSize = 256

// IconProcessor turns uploads into square PNG icons.
type IconProcessor struct {
	size int
}

// NewIconProcessor creates a processor producing size x size icons
func NewIconProcessor(size int) *IconProcessor {
	if size <= 0 {
		size = DefaultIconSize
	}
	return &IconProcessor{size: size}
}

// Process decodes an image, center-crops it to a square and encodes it as PNG
func (p *IconProcessor) Process(reader io.Reader) ([]byte, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	icon := imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, icon); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType of every processed icon
func (p *IconProcessor) ContentType() string {
	return "image/png"
}

// MaxFileSize in bytes (2MB)
const MaxFileSize int64 = 2 * 1024 * 1024
