package archive

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		want       image.Rectangle
	}{
		{"same aspect", 800, 600, image.Rect(0, 0, 200, 150)},
		{"wide", 400, 100, image.Rect(0, 50, 200, 100)},
		{"tall", 100, 400, image.Rect(81, 0, 119, 150)},
		{"small upscaled", 4, 3, image.Rect(0, 0, 200, 150)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitRect(tt.srcW, tt.srcH, 200, 150); got != tt.want {
				t.Errorf("fitRect(%d, %d) = %v, want %v", tt.srcW, tt.srcH, got, tt.want)
			}
		})
	}
}

func TestThumbnail_Letterbox(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src, _ := solidRaster{w: 400, h: 100, c: red}.Render()

	data, err := Thumbnail(src, 200, 150)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	if r, g, b, _ := img.At(100, 10).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("band pixel = %d,%d,%d; want white", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(100, 75).RGBA(); r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("center pixel = %d,%d,%d; want red", r>>8, g>>8, b>>8)
	}
}

func TestThumbnail_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  image.Image
		w, h int
	}{
		{"nil source", nil, 200, 150},
		{"empty source", image.NewRGBA(image.Rect(0, 0, 0, 0)), 200, 150},
		{"zero size", image.NewRGBA(image.Rect(0, 0, 4, 4)), 0, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Thumbnail(tt.src, tt.w, tt.h); !errors.Is(err, domain.ErrThumbnail) {
				t.Errorf("Thumbnail() error = %v, want ErrThumbnail", err)
			}
		})
	}
}
