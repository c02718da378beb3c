// Package compositor flattens a sandbox board into a single image: a sand
// colored gradient with every placed item painted at its scaled position.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/sandbox"
)

// Assets resolves an item's image reference. ok is false when the image is
// not loaded; such items are left out of the render.
type Assets interface {
	Get(name string) (img image.Image, ok bool)
}

type stop struct {
	at float64
	c  color.RGBA
}

var background = []stop{
	{0, rgb(0xf4, 0xe4, 0xbc)},
	{0.25, rgb(0xe6, 0xd7, 0xb8)},
	{0.5, rgb(0xd4, 0xc4, 0xa8)},
	{0.75, rgb(0xc2, 0xb2, 0x80)},
	{1, rgb(0xb8, 0xa6, 0x7a)},
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Render paints items onto a target-sized canvas. Positions and sizes are
// scaled by target/surface on each axis. Items without an image reference
// are drawn as a swatch of their color.
func Render(items []models.PlacedItem, surface sandbox.Surface, target image.Point, assets Assets) (*image.RGBA, error) {
	if target.X <= 0 || target.Y <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", target.X, target.Y)
	}
	if surface.Width <= 0 || surface.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %gx%g", surface.Width, surface.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, target.X, target.Y))
	paintGradient(dst)

	sx := float64(target.X) / surface.Width
	sy := float64(target.Y) / surface.Height
	for _, it := range items {
		r := image.Rect(
			int(it.X*sx), int(it.Y*sy),
			int((it.X+it.Size)*sx), int((it.Y+it.Size)*sy),
		)
		if r.Empty() {
			continue
		}
		if it.ImageRef == "" {
			draw.Draw(dst, r, image.NewUniform(parseColor(it.Color)), image.Point{}, draw.Over)
			continue
		}
		if assets == nil {
			continue
		}
		src, ok := assets.Get(it.ImageRef)
		if !ok {
			continue
		}
		draw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	}
	return dst, nil
}

// paintGradient fills dst with the background stops along the top-left to
// bottom-right diagonal.
func paintGradient(dst *image.RGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	norm := w*w + h*h
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := (float64(x)*w + float64(y)*h) / norm
			dst.SetRGBA(x, y, gradientAt(t))
		}
	}
}

func gradientAt(t float64) color.RGBA {
	if t <= 0 {
		return background[0].c
	}
	for i := 1; i < len(background); i++ {
		next := background[i]
		if t <= next.at {
			prev := background[i-1]
			f := (t - prev.at) / (next.at - prev.at)
			return color.RGBA{
				R: lerp(prev.c.R, next.c.R, f),
				G: lerp(prev.c.G, next.c.G, f),
				B: lerp(prev.c.B, next.c.B, f),
				A: 0xff,
			}
		}
	}
	return background[len(background)-1].c
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

// parseColor reads "#rrggbb". Anything else falls back to mid gray.
func parseColor(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return rgb(0x80, 0x80, 0x80)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb(0x80, 0x80, 0x80)
	}
	return rgb(uint8(v>>16), uint8(v>>8), uint8(v))
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
