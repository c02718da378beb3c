// Package caption validates uploaded sandbox photos and produces the scene
// description and the psychological report returned by the analysis
// endpoint.
package caption

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 << 20

var (
	ErrEmptyImage        = errors.New("image is empty")
	ErrImageTooLarge     = errors.New("file too large (max 10MB)")
	ErrUnsupportedFormat = errors.New("only image file formats (JPEG, PNG) are supported")
)

// Validate checks that data is a JPEG or PNG no larger than limit bytes
// (MaxImageBytes when limit is not positive) and returns its header.
func Validate(data []byte, limit int64) (image.Config, string, error) {
	if limit <= 0 {
		limit = MaxImageBytes
	}
	if len(data) == 0 {
		return image.Config{}, "", ErrEmptyImage
	}
	if int64(len(data)) > limit {
		return image.Config{}, "", ErrImageTooLarge
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return image.Config{}, "", ErrUnsupportedFormat
	}
	return cfg, format, nil
}

var scenes = []string{
	"A tree in the middle of the sandbox with small figures around it",
	"A house made of blocks with a path leading to it",
	"Several animals arranged in a circle formation",
	"A bridge connecting two areas of the sandbox",
	"A castle with towers and a moat",
	"A garden with flowers and a small pond",
	"A family of figures standing together",
	"A car and road leading to a building",
	"A forest scene with trees and animals",
	"A beach scene with sand, water, and shells",
}

// Describe picks a scene description from the image dimensions. The same
// dimensions always give the same description.
func Describe(cfg image.Config) string {
	h := uint(cfg.Width)*31 + uint(cfg.Height)
	return scenes[h%uint(len(scenes))]
}
