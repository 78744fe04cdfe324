package imageprocessor

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail_Downscales(t *testing.T) {
	p := NewProcessor(0)
	out, err := p.Thumbnail(bytes.NewReader(encodePNG(t, 1200, 600)), 300)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestThumbnail_KeepsSmallImages(t *testing.T) {
	p := NewProcessor(90)
	out, err := p.Thumbnail(bytes.NewReader(encodePNG(t, 40, 80)), 300)
	require.NoError(t, err)

	w, h, err := GetImageDimensions(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 80, h)
}

func TestThumbnail_RejectsGarbage(t *testing.T) {
	p := NewProcessor(85)
	_, err := p.Thumbnail(bytes.NewReader([]byte("not an image")), 300)
	assert.Error(t, err)

	_, err = p.Thumbnail(bytes.NewReader(encodePNG(t, 10, 10)), 0)
	assert.Error(t, err)
}

// pngHeaderOnly returns a PNG signature plus a valid IHDR chunk declaring a
// w x h RGBA canvas, without any pixel data.
func pngHeaderOnly(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestThumbnail_RejectsOversizedCanvas(t *testing.T) {
	p := NewProcessor(85)

	w, h, err := GetImageDimensions(bytes.NewReader(pngHeaderOnly(100000, 100000)))
	require.NoError(t, err)
	assert.Equal(t, 100000, w)
	assert.Equal(t, 100000, h)

	_, err = p.Thumbnail(bytes.NewReader(pngHeaderOnly(100000, 100000)), 300)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	p.maxPixels = 100
	_, err = p.Thumbnail(bytes.NewReader(encodePNG(t, 20, 20)), 300)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	p.maxPixels = 400
	_, err = p.Thumbnail(bytes.NewReader(encodePNG(t, 20, 20)), 300)
	assert.NoError(t, err)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1000, 500, 300, 300, 150},
		{500, 1000, 300, 150, 300},
		{300, 300, 300, 300, 300},
		{3000, 1, 300, 300, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}
