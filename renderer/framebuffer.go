package renderer

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/chewxy/math32"
)

const displayGamma float32 = 2.2

// Map an HDR radiance value to an 8-bit display value using simple
// Reinhard tone-mapping followed by gamma correction.
func tonemap(value, exposure float32) uint8 {
	if !(value > 0) || math32.IsInf(value, 0) {
		if math32.IsInf(value, 1) {
			return 255
		}
		return 0
	}

	scaled := value * exposure
	mapped := math32.Pow(scaled/(1+scaled), 1/displayGamma)
	return uint8(math32.Min(255, math32.Round(mapped*255)))
}

// Tone-map the frame into an 8-bit image.
func (f Frame) Image(exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(f.Width), int(f.Height)))
	for y := 0; y < int(f.Height); y++ {
		for x := 0; x < int(f.Width); x++ {
			radiance := f.Radiance[y*int(f.Width)+x]
			img.SetRGBA(x, y, color.RGBA{
				R: tonemap(radiance[0], exposure),
				G: tonemap(radiance[1], exposure),
				B: tonemap(radiance[2], exposure),
				A: 255,
			})
		}
	}
	return img
}

func writePNG(imgFile string, img image.Image) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}

	if err = png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
