package camera

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"github.com/larsjh/gobooth/internal/debug"
)

// mockPalette cycles through distinct colors so montage cells are easy to
// tell apart during development.
var mockPalette = []color.RGBA{
	{R: 0xE6, G: 0x4B, B: 0x35, A: 0xFF},
	{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF},
	{R: 0xF6, G: 0xAE, B: 0x2D, A: 0xFF},
	{R: 0x33, G: 0x65, B: 0x4F, A: 0xFF},
}

// Mock is a Camera for development without attached hardware. Each Capture
// returns a solid-color JPEG, cycling through a small palette.
type Mock struct {
	Width  int
	Height int

	mu    sync.Mutex
	shots int
}

// NewMock creates a mock camera producing images of the given size.
func NewMock(width, height int) *Mock {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	return &Mock{Width: width, Height: height}
}

func (m *Mock) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DeviceError{Op: "capture", Err: err}
	}

	m.mu.Lock()
	c := mockPalette[m.shots%len(mockPalette)]
	m.shots++
	m.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, &DeviceError{Op: "capture", Err: err}
	}

	debug.Verbose("Mock camera: produced %dx%d frame", m.Width, m.Height)
	return buf.Bytes(), nil
}

// ShotCount returns how many captures the mock has served.
func (m *Mock) ShotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shots
}

var _ Camera = (*Mock)(nil)
