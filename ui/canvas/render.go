// Package canvas drawing primitives: software rasterization of GeoJSON
// geometry onto the raster output.
package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"flatmap-viewer/internal/state"
	"flatmap-viewer/pkg/colorutil"
)

const pointRadiusPx = 5

func fillBackground(output *image.RGBA) {
	bg := colorutil.Background
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = bg.R
		output.Pix[i+1] = bg.G
		output.Pix[i+2] = bg.B
		output.Pix[i+3] = 255
	}
}

// featureStyle picks fill and stroke colors from the feature's flags. The
// highlight and selection states tint the layer's base color rather than
// replacing it, so layer identity stays readable.
func (mc *MapCanvas) featureStyle(layer string, f *geojson.Feature) (fill, stroke color.RGBA) {
	fill = colorutil.LayerColor(layer)
	stroke = colorutil.WithAlpha(colorutil.Black, 160)

	id, _ := f.ID.(string)
	if id == "" {
		return fill, stroke
	}
	flags := mc.flags.Flags(state.Key{SourceLayer: layer, FeatureID: id})

	if flags[state.FlagActive] {
		fill = colorutil.Lighten(fill, 0.35)
	}
	if flags[state.FlagHighlighted] {
		fill = colorutil.Blend(fill, colorutil.WithAlpha(colorutil.Cyan, 140))
		stroke = colorutil.Cyan
	}
	if flags[state.FlagSelected] {
		fill = colorutil.Blend(fill, colorutil.WithAlpha(colorutil.Yellow, 140))
		stroke = colorutil.Black
	}
	if flags[state.FlagAnnotationError] {
		stroke = colorutil.Red
	}
	return fill, stroke
}

type screenPoint struct {
	x, y float64
}

func (mc *MapCanvas) projectRing(ring orb.Ring) []screenPoint {
	pts := make([]screenPoint, len(ring))
	for i, p := range ring {
		pos := mc.WorldToScreen(p)
		pts[i] = screenPoint{x: float64(pos.X), y: float64(pos.Y)}
	}
	return pts
}

func (mc *MapCanvas) projectLine(line orb.LineString) []screenPoint {
	pts := make([]screenPoint, len(line))
	for i, p := range line {
		pos := mc.WorldToScreen(p)
		pts[i] = screenPoint{x: float64(pos.X), y: float64(pos.Y)}
	}
	return pts
}

func (mc *MapCanvas) drawFeature(output *image.RGBA, layer string, f *geojson.Feature) {
	if f.Geometry == nil {
		return
	}
	fill, stroke := mc.featureStyle(layer, f)

	switch geom := f.Geometry.(type) {
	case orb.Polygon:
		mc.drawPolygon(output, geom, fill, stroke)
	case orb.MultiPolygon:
		for _, poly := range geom {
			mc.drawPolygon(output, poly, fill, stroke)
		}
	case orb.LineString:
		drawPolyline(output, mc.projectLine(geom), stroke)
	case orb.MultiLineString:
		for _, line := range geom {
			drawPolyline(output, mc.projectLine(line), stroke)
		}
	case orb.Point:
		pos := mc.WorldToScreen(geom)
		drawDisc(output, int(pos.X), int(pos.Y), pointRadiusPx, fill, stroke)
	case orb.MultiPoint:
		for _, p := range geom {
			pos := mc.WorldToScreen(p)
			drawDisc(output, int(pos.X), int(pos.Y), pointRadiusPx, fill, stroke)
		}
	}
}

func (mc *MapCanvas) drawPolygon(output *image.RGBA, poly orb.Polygon, fill, stroke color.RGBA) {
	rings := make([][]screenPoint, len(poly))
	for i, ring := range poly {
		rings[i] = mc.projectRing(ring)
	}
	fillRings(output, rings, fill)
	for _, ring := range rings {
		drawPolyline(output, ring, stroke)
	}
}

// fillRings scanline-fills a polygon with holes using the even-odd rule.
func fillRings(output *image.RGBA, rings [][]screenPoint, col color.RGBA) {
	bounds := output.Bounds()

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		for _, p := range ring {
			minY = math.Min(minY, p.y)
			maxY = math.Max(maxY, p.y)
		}
	}
	y0 := int(math.Max(minY, float64(bounds.Min.Y)))
	y1 := int(math.Min(maxY, float64(bounds.Max.Y-1)))

	var xs []float64
	for y := y0; y <= y1; y++ {
		scan := float64(y) + 0.5
		xs = xs[:0]
		for _, ring := range rings {
			n := len(ring)
			if n < 3 {
				continue
			}
			for i := 0; i < n; i++ {
				a := ring[i]
				b := ring[(i+1)%n]
				if (a.y <= scan) == (b.y <= scan) {
					continue
				}
				t := (scan - a.y) / (b.y - a.y)
				xs = append(xs, a.x+t*(b.x-a.x))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sortFloats(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Max(xs[i], float64(bounds.Min.X)))
			x1 := int(math.Min(xs[i+1], float64(bounds.Max.X-1)))
			for x := x0; x <= x1; x++ {
				blendPixel(output, x, y, col)
			}
		}
	}
}

// sortFloats is an insertion sort; scanline crossing counts are tiny.
func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

func blendPixel(output *image.RGBA, x, y int, col color.RGBA) {
	if col.A == 255 {
		output.SetRGBA(x, y, col)
		return
	}
	output.SetRGBA(x, y, colorutil.Blend(output.RGBAAt(x, y), col))
}

func drawPolyline(output *image.RGBA, pts []screenPoint, col color.RGBA) {
	for i := 0; i+1 < len(pts); i++ {
		drawSegment(output, pts[i], pts[i+1], col)
	}
}

// drawSegment draws a 1px line with a DDA walk.
func drawSegment(output *image.RGBA, a, b screenPoint, col color.RGBA) {
	dx := b.x - a.x
	dy := b.y - a.y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		setPixel(output, int(a.x), int(a.y), col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setPixel(output, int(a.x+dx*t), int(a.y+dy*t), col)
	}
}

func setPixel(output *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(output.Bounds()) {
		return
	}
	blendPixel(output, x, y, col)
}

func drawDisc(output *image.RGBA, cx, cy, radius int, fill, stroke color.RGBA) {
	r2 := radius * radius
	inner := (radius - 1) * (radius - 1)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			col := fill
			if d2 > inner {
				col = stroke
			}
			setPixel(output, cx+dx, cy+dy, col)
		}
	}
}

// drawFeatureLabel draws the feature's label at its centroid, but only for
// features the user has marked out: highlighted or selected.
func (mc *MapCanvas) drawFeatureLabel(output *image.RGBA, layer string, f *geojson.Feature) {
	id, _ := f.ID.(string)
	if id == "" {
		return
	}
	flags := mc.flags.Flags(state.Key{SourceLayer: layer, FeatureID: id})
	if !flags[state.FlagHighlighted] && !flags[state.FlagSelected] {
		return
	}

	label, _ := f.Properties["label"].(string)
	if label == "" {
		if ann := mc.fm.Annotation(id); ann != nil {
			label = ann.Label
		}
	}
	if label == "" {
		return
	}

	pos := mc.WorldToScreen(f.Geometry.Bound().Center())
	drawLabel(output, label, int(pos.X), int(pos.Y))
}

// drawLabel draws centered text with a light halo for contrast.
func drawLabel(output *image.RGBA, text string, cx, cy int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	x := cx - width/2
	y := cy + face.Metrics().Ascent.Ceil()/2

	for _, off := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		drawString(output, text, x+off[0], y+off[1], colorutil.White)
	}
	drawString(output, text, x, y, colorutil.Black)
}

func drawString(output *image.RGBA, text string, x, y int, col color.RGBA) {
	d := font.Drawer{
		Dst:  output,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
