package scene

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"github.com/yndnr/drawdoc/internal/core/codec"
	"github.com/yndnr/drawdoc/internal/core/domain"
)

// ellipseSegments is the polygon resolution used to stroke ellipses.
const ellipseSegments = 64

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

// placeholder fills image nodes whose pixels are unavailable.
var placeholder = color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}

// Renderer rasterizes a Scene. It satisfies archive.RasterSource.
type Renderer struct {
	scene *Scene
}

// NewRenderer creates a renderer for s.
func NewRenderer(s *Scene) *Renderer {
	return &Renderer{scene: s}
}

// Render draws the current scene at canvas size.
func (r *Renderer) Render() (image.Image, error) {
	return Rasterize(r.scene.Root())
}

// Rasterize draws a scene tree at its canvas size. Unknown kinds and
// unpaintable colors are skipped.
func Rasterize(root *domain.SceneNode) (*image.RGBA, error) {
	canvas := canvasOf(root)
	dst := image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height))

	bg, ok := parseColor(canvas.BackgroundColor)
	if !ok {
		bg = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	for _, child := range root.Children() {
		drawNode(dst, child, 0, 0)
	}
	return dst, nil
}

func drawNode(dst *image.RGBA, n *domain.SceneNode, ox, oy float64) {
	x, _ := number(n, "x", "left")
	y, _ := number(n, "y", "top")
	x += ox
	y += oy

	switch n.Kind() {
	case "group":
		for _, child := range n.Children() {
			drawNode(dst, child, x, y)
		}

	case "rect":
		w, _ := number(n, "width", "w")
		h, _ := number(n, "height", "h")
		pts := []point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
		fillPolygon(dst, pts, n)
		strokePolyline(dst, pts, true, n)

	case "ellipse", "circle":
		rx, ok := number(n, "rx", "radius")
		if !ok {
			return
		}
		ry, ok := number(n, "ry", "radius")
		if !ok {
			ry = rx
		}
		fillEllipse(dst, x+rx, y+ry, rx, ry, n)
		strokePolyline(dst, ellipsePoints(x+rx, y+ry, rx, ry), true, n)

	case "line":
		x1, _ := number(n, "x1")
		y1, _ := number(n, "y1")
		x2, _ := number(n, "x2")
		y2, _ := number(n, "y2")
		strokePolyline(dst, []point{{x + x1, y + y1}, {x + x2, y + y2}}, false, n)

	case "polyline", "polygon":
		pts := pointsAttr(n, x, y)
		closed := n.Kind() == "polygon"
		if closed {
			fillPolygon(dst, pts, n)
		}
		strokePolyline(dst, pts, closed, n)

	case domain.KindImage:
		w, _ := number(n, "width", "w")
		h, _ := number(n, "height", "h")
		drawImage(dst, n, x, y, w, h)
	}
}

type point struct{ x, y float64 }

func pointsAttr(n *domain.SceneNode, ox, oy float64) []point {
	raw, _ := n.Attr("points")
	list, _ := raw.([]any)
	pts := make([]point, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := domain.NewSceneNode("", m)
		px, okx := number(p, "x")
		py, oky := number(p, "y")
		if okx && oky {
			pts = append(pts, point{ox + px, oy + py})
		}
	}
	return pts
}

func ellipsePoints(cx, cy, rx, ry float64) []point {
	pts := make([]point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = point{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
	}
	return pts
}

func paint(n *domain.SceneNode, key string) (color.NRGBA, bool) {
	s, ok := n.StringAttr(key)
	if !ok {
		return color.NRGBA{}, false
	}
	c, ok := parseColor(s)
	if !ok {
		return c, false
	}
	return withOpacity(c, n), true
}

func fillPolygon(dst *image.RGBA, pts []point, n *domain.SceneNode) {
	c, ok := paint(n, "fill")
	if !ok || len(pts) < 3 {
		return
	}
	rasterize(dst, c, func(z *vector.Rasterizer, clamp func(point) (float32, float32)) {
		z.MoveTo(clamp(pts[0]))
		for _, p := range pts[1:] {
			z.LineTo(clamp(p))
		}
		z.ClosePath()
	})
}

func fillEllipse(dst *image.RGBA, cx, cy, rx, ry float64, n *domain.SceneNode) {
	c, ok := paint(n, "fill")
	if !ok || rx <= 0 || ry <= 0 {
		return
	}
	kx, ky := rx*kappa, ry*kappa
	rasterize(dst, c, func(z *vector.Rasterizer, clamp func(point) (float32, float32)) {
		pt := func(x, y float64) (float32, float32) { return clamp(point{x, y}) }
		cube := func(x1, y1, x2, y2, x3, y3 float64) {
			ax, ay := pt(x1, y1)
			bx, by := pt(x2, y2)
			ex, ey := pt(x3, y3)
			z.CubeTo(ax, ay, bx, by, ex, ey)
		}
		z.MoveTo(pt(cx+rx, cy))
		cube(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
		cube(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
		cube(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
		cube(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
		z.ClosePath()
	})
}

// strokePolyline draws each segment as its own quad so overlapping
// segments never cancel out.
func strokePolyline(dst *image.RGBA, pts []point, closed bool, n *domain.SceneNode) {
	c, ok := paint(n, "stroke")
	if !ok || len(pts) < 2 {
		return
	}
	width, ok := number(n, "strokeWidth", "stroke-width")
	if !ok {
		width = 1
	}
	if width <= 0 {
		return
	}

	segs := len(pts) - 1
	if closed {
		segs = len(pts)
	}
	half := width / 2
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		quad := []point{{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny}, {b.x - nx, b.y - ny}, {a.x - nx, a.y - ny}}
		rasterize(dst, c, func(z *vector.Rasterizer, clamp func(point) (float32, float32)) {
			z.MoveTo(clamp(quad[0]))
			for _, p := range quad[1:] {
				z.LineTo(clamp(p))
			}
			z.ClosePath()
		})
	}
}

// rasterize runs build on a canvas-sized rasterizer and composites the
// coverage in c over dst. Points are clamped to the canvas.
func rasterize(dst *image.RGBA, c color.NRGBA, build func(z *vector.Rasterizer, clamp func(point) (float32, float32))) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	clamp := func(p point) (float32, float32) {
		return float32(math.Max(0, math.Min(w, p.x))), float32(math.Max(0, math.Min(h, p.y)))
	}

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	build(z, clamp)
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func drawImage(dst *image.RGBA, n *domain.SceneNode, x, y, w, h float64) {
	img := decodeSource(n)
	if img != nil {
		if w <= 0 {
			w = float64(img.Bounds().Dx())
		}
		if h <= 0 {
			h = float64(img.Bounds().Dy())
		}
	}
	rect := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	if rect.Empty() {
		return
	}
	if img == nil {
		xdraw.Draw(dst, rect, image.NewUniform(placeholder), image.Point{}, xdraw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, rect, img, img.Bounds(), xdraw.Over, nil)
}

// decodeSource decodes an inline image source. Asset pointers and
// undecodable payloads yield nil.
func decodeSource(n *domain.SceneNode) image.Image {
	src, ok := n.StringAttr(domain.SourceKey)
	if !ok {
		return nil
	}
	_, data, isData, err := codec.ParseDataURI(src)
	if !isData || err != nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}
