// Package imaging converts generated raster images into the
// photographic JPEG form served by the storefront.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/arcanum-labs/magicshop/internal/domain"
)

// Convert re-encodes the image at srcPath as a JPEG at dstPath.
// Transparency is flattened onto an opaque white background; every
// source mode is normalized to plain RGB. The destination directory is
// created if absent. On failure nothing is written.
func Convert(srcPath, dstPath string, quality int) (string, error) {
	if quality < 1 || quality > 100 {
		return "", domain.InvalidArgumentError(
			fmt.Sprintf("quality must be between 1 and 100, got %d", quality), nil)
	}

	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return "", domain.NotFoundError(fmt.Sprintf("source image not found: %s", srcPath), err)
		}
		return "", domain.NotFoundError(fmt.Sprintf("cannot access source image: %s", srcPath), err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", domain.ConversionError(fmt.Sprintf("open source image: %s", srcPath), err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", domain.ConversionError("decode source image", err)
	}

	// Encode to a buffer first so a failed encode leaves no file behind.
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return "", domain.ConversionError("encode JPEG", err)
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", domain.ConversionError("create destination directory", err)
	}

	if err := os.WriteFile(dstPath, buf.Bytes(), 0o644); err != nil {
		return "", domain.ConversionError(fmt.Sprintf("write destination image: %s", dstPath), err)
	}

	return dstPath, nil
}

// flatten composites img onto an opaque white background, yielding a
// plain RGB-equivalent image regardless of the source color model.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}
