package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "source.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))

	return path
}

func decodeBounds(t *testing.T, path string) image.Rectangle {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, _, err := image.Decode(file)
	require.NoError(t, err)
	return img.Bounds()
}

func TestThumbnail_ScalesDown(t *testing.T) {
	src := writeTestPNG(t, 64, 48)
	dest := filepath.Join(t.TempDir(), "thumb.png")

	require.NoError(t, Thumbnail(src, dest, 32, 32))

	bounds := decodeBounds(t, dest)
	assert.Equal(t, 32, bounds.Dx())
	assert.Equal(t, 24, bounds.Dy())
}

func TestThumbnail_KeepsSmallImages(t *testing.T) {
	src := writeTestPNG(t, 20, 10)
	dest := filepath.Join(t.TempDir(), "thumb.png")

	require.NoError(t, Thumbnail(src, dest, 128, 128))

	bounds := decodeBounds(t, dest)
	assert.Equal(t, 20, bounds.Dx())
	assert.Equal(t, 10, bounds.Dy())
}

func TestConvert_PNGToJPEG(t *testing.T) {
	src := writeTestPNG(t, 16, 16)
	dest := filepath.Join(t.TempDir(), "out.jpg")

	require.NoError(t, Convert(src, dest, 80))

	file, err := os.Open(dest)
	require.NoError(t, err)
	defer file.Close()

	_, format, err := image.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestConvert_UnsupportedOutput(t *testing.T) {
	src := writeTestPNG(t, 16, 16)

	err := Convert(src, filepath.Join(t.TempDir(), "out.webp"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestThumbnail_MissingSource(t *testing.T) {
	err := Thumbnail(filepath.Join(t.TempDir(), "missing.png"), filepath.Join(t.TempDir(), "thumb.png"), 32, 32)
	require.Error(t, err)
}
