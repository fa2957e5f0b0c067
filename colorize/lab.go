package colorize

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Plane value ranges in conventional CIE Lab units.
const (
	lMin  = 0
	lMax  = 100
	abMin = -128
	abMax = 128
)

// lightness returns the L channel of img (0..100) in row-major order.
func lightness(img image.Image) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// fully transparent, treat as black
				out = append(out, 0)
				continue
			}
			l, _, _ := c.Lab()
			out = append(out, float32(l*100))
		}
	}
	return out
}

// resample scales a w×h plane of values in [lo, hi] to tw×th with bilinear
// interpolation. Values outside the range are clamped.
func resample(plane []float32, w, h, tw, th int, lo, hi float32) []float32 {
	if w == tw && h == th {
		return append([]float32(nil), plane...)
	}

	scale := float32(0xffff) / (hi - lo)
	src := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := min(max(plane[y*w+x], lo), hi)
			src.SetGray16(x, y, color.Gray16{Y: uint16((v-lo)*scale + 0.5)})
		}
	}

	dst := resize.Resize(uint(tw), uint(th), src, resize.Bilinear)
	db := dst.Bounds()
	out := make([]float32, 0, tw*th)
	for y := db.Min.Y; y < db.Max.Y; y++ {
		for x := db.Min.X; x < db.Max.X; x++ {
			g := color.Gray16Model.Convert(dst.At(x, y)).(color.Gray16)
			out = append(out, lo+float32(g.Y)/scale)
		}
	}
	return out
}

// compose rebuilds an sRGB image from native-resolution L, a and b planes.
func compose(l, a, b []float32, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := colorful.Lab(float64(l[i])/100, float64(a[i])/100, float64(b[i])/100).Clamped()
			r, g, bl := c.RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: 0xff})
		}
	}
	return img
}
