package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels - предел площади холста для декодирования (~40 Мп).
// Небольшой PNG может объявить огромный холст и занять гигабайты при Decode.
const DefaultMaxPixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions exceed the decode budget")

// Processor handles image processing operations
type Processor struct {
	quality   int // JPEG quality (1-100)
	maxPixels int
}

// NewProcessor creates a new image processor
func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85 // Default quality
	}
	return &Processor{
		quality:   quality,
		maxPixels: DefaultMaxPixels,
	}
}

// Thumbnail decodes any registered format (jpeg, png, gif, webp) and returns
// a JPEG whose longer side is at most maxSide. Smaller images are re-encoded
// without upscaling.
func (p *Processor) Thumbnail(reader io.Reader, maxSide int) ([]byte, error) {
	if maxSide <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size: %d", maxSide)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	// размеры из заголовка проверяем до выделения памяти под пиксели
	width, height, err := GetImageDimensions(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || int64(width)*int64(height) > int64(p.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	w, h := fitWithin(img.Bounds().Dx(), img.Bounds().Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha, прозрачные области заливаем белым
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (width, height) so the longer side is at most maxSide,
// keeping the aspect ratio. Never returns a zero dimension.
func fitWithin(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return max(width, 1), max(height, 1)
	}
	if width >= height {
		return maxSide, max(height*maxSide/width, 1)
	}
	return max(width*maxSide/height, 1), maxSide
}

// GetImageDimensions returns the dimensions of an image without decoding pixels
func GetImageDimensions(reader io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
