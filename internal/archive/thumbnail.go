package archive

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

// Default preview geometry.
const (
	DefaultThumbnailWidth  = 200
	DefaultThumbnailHeight = 150
)

// RasterSource renders the current scene for the preview.
type RasterSource interface {
	Render() (image.Image, error)
}

var errNoRaster = errors.New("no raster source")

// Thumbnail scales src to fit a width x height box, preserving aspect
// ratio, centered on a white background, and encodes it as PNG.
func Thumbnail(src image.Image, width, height int) ([]byte, error) {
	if src == nil {
		return nil, domain.ErrThumbnail.WithCause(errNoRaster)
	}
	if width <= 0 || height <= 0 {
		return nil, domain.ErrThumbnail.WithDetails(fmt.Sprintf("invalid size %dx%d", width, height))
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil, domain.ErrThumbnail.WithDetails("empty source raster")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	draw.CatmullRom.Scale(dst, fitRect(sb.Dx(), sb.Dy(), width, height), src, sb, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, domain.ErrThumbnail.WithCause(err)
	}
	return buf.Bytes(), nil
}

// fitRect returns the largest rectangle with the source aspect ratio that
// fits in a width x height box, centered.
func fitRect(srcW, srcH, width, height int) image.Rectangle {
	scale := min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	w := max(1, int(float64(srcW)*scale+0.5))
	h := max(1, int(float64(srcH)*scale+0.5))
	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func renderThumbnail(src RasterSource, width, height int) ([]byte, error) {
	if src == nil {
		return nil, domain.ErrThumbnail.WithCause(errNoRaster)
	}
	img, err := src.Render()
	if err != nil {
		return nil, domain.ErrThumbnail.WithCause(err)
	}
	return Thumbnail(img, width, height)
}
