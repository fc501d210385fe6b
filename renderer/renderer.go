package renderer

import (
	"context"
	"image"

	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
)

type Renderer interface {
	// Render frame.
	Render(ctx context.Context) error

	// Move the camera. This discards all accumulated samples.
	UpdateCamera(camera *scene.Camera) error

	// Discard all accumulated samples.
	ResetAccumulation()

	// Get the averaged radiance for each pixel.
	Frame() Frame

	// Tone-map the accumulated radiance into an 8-bit image.
	Image(exposure float32) *image.RGBA

	// Save the tone-mapped frame as a PNG image.
	SaveImage(imgFile string) error

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// A snapshot of the averaged radiance and sample counts for every pixel,
// stored in row-major order.
type Frame struct {
	Width       uint32
	Height      uint32
	Radiance    []types.Vec3
	SampleCount []uint32
}
