// Package images provides thumbnail generation and format conversion for
// uploaded pictures. JPEG, PNG and WebP can be decoded; output format is
// chosen by the destination extension (WebP has no encoder available, so
// conversions target JPEG or PNG).
package images

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const DefaultJPEGQuality = 90

// Thumbnail scales an image down to fit within maxWidth x maxHeight,
// preserving the aspect ratio, and writes it to destPath. Images already
// within bounds are re-encoded unscaled.
func Thumbnail(srcPath, destPath string, maxWidth, maxHeight int) error {
	img, err := decode(srcPath)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}
	if s := float64(maxHeight) / float64(height); height > maxHeight && s < scale {
		scale = s
	}

	if scale < 1.0 {
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	return encode(img, destPath, DefaultJPEGQuality)
}

// Convert re-encodes an image into the format implied by destPath's
// extension. Quality applies to JPEG output only; zero or negative values
// select the default.
func Convert(srcPath, destPath string, quality int) error {
	img, err := decode(srcPath)
	if err != nil {
		return err
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return encode(img, destPath, quality)
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

func encode(img image.Image, path string, quality int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	case ".png":
		err = png.Encode(file, img)
	default:
		return fmt.Errorf("unsupported output format %q for %s", ext, path)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}

	return nil
}
