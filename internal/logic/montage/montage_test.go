package montage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

// solid returns a w x h image filled with c.
func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var (
	red    = color.RGBA{R: 0xFF, A: 0xFF}
	green  = color.RGBA{G: 0xFF, A: 0xFF}
	blue   = color.RGBA{B: 0xFF, A: 0xFF}
	yellow = color.RGBA{R: 0xFF, G: 0xFF, A: 0xFF}
)

func newTestComposer(t *testing.T, p Params) *Composer {
	t.Helper()
	c, err := NewComposer(p)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	return c
}

// sampleRegion checks that every pixel in the given canvas rectangle equals c.
func sampleRegion(t *testing.T, canvas *image.RGBA, r image.Rectangle, c color.RGBA, name string) {
	t.Helper()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			got := canvas.RGBAAt(x, y)
			if got != c {
				t.Fatalf("%s: pixel (%d,%d) = %v, want %v", name, x, y, got, c)
			}
		}
	}
}

func TestLayoutFor(t *testing.T) {
	cases := []struct {
		n          int
		rows, cols int
	}{
		{1, 1, 1},
		{4, 2, 2},
		{9, 3, 3},
	}
	for _, tc := range cases {
		l, err := LayoutFor(tc.n)
		if err != nil {
			t.Fatalf("LayoutFor(%d): %v", tc.n, err)
		}
		if l.Rows != tc.rows || l.Cols != tc.cols {
			t.Errorf("LayoutFor(%d) = %dx%d, want %dx%d", tc.n, l.Rows, l.Cols, tc.rows, tc.cols)
		}
	}
}

func TestLayoutFor_Unsupported(t *testing.T) {
	for _, n := range []int{0, 2, 3, 5, 6, 16, -1} {
		_, err := LayoutFor(n)
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("LayoutFor(%d): expected InvalidInputError, got %v", n, err)
		}
	}
}

func TestCompose_QuadrantsPixelIdentical(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout: Layout{Rows: 2, Cols: 2},
		Width:  1600,
		Height: 1200,
	})

	images := []image.Image{
		solid(800, 600, red),
		solid(800, 600, green),
		solid(800, 600, blue),
		solid(800, 600, yellow),
	}

	canvas, err := comp.Compose(images)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if canvas.Bounds().Dx() != 1600 || canvas.Bounds().Dy() != 1200 {
		t.Fatalf("canvas = %v, want 1600x1200", canvas.Bounds())
	}

	// Row-major capture order: 1 top-left, 2 top-right, 3 bottom-left, 4 bottom-right.
	sampleRegion(t, canvas, image.Rect(0, 0, 800, 600), red, "top-left")
	sampleRegion(t, canvas, image.Rect(800, 0, 1600, 600), green, "top-right")
	sampleRegion(t, canvas, image.Rect(0, 600, 800, 1200), blue, "bottom-left")
	sampleRegion(t, canvas, image.Rect(800, 600, 1600, 1200), yellow, "bottom-right")
}

func TestCompose_Deterministic(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout: Layout{Rows: 2, Cols: 2},
		Width:  400,
		Height: 300,
	})

	// Sizes that don't match the cell force the crop+scale path too.
	images := []image.Image{
		solid(640, 480, red),
		solid(640, 480, green),
		solid(300, 500, blue),
		solid(200, 150, yellow),
	}

	first, err := comp.Compose(images)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	second, err := comp.Compose(images)
	if err != nil {
		t.Fatalf("Compose (second): %v", err)
	}

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("identical inputs produced different canvases")
	}
}

func TestCompose_WrongImageCount(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout: Layout{Rows: 2, Cols: 2},
		Width:  400,
		Height: 300,
	})

	for _, n := range []int{0, 3, 5} {
		images := make([]image.Image, n)
		for i := range images {
			images[i] = solid(100, 75, red)
		}
		_, err := comp.Compose(images)
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("Compose with %d images: expected InvalidInputError, got %v", n, err)
		}
	}
}

func TestCompose_SingleImage(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout: Layout{Rows: 1, Cols: 1},
		Width:  800,
		Height: 600,
	})

	canvas, err := comp.Compose([]image.Image{solid(800, 600, blue)})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	sampleRegion(t, canvas, canvas.Bounds(), blue, "full canvas")
}

func TestCompose_ScalesMismatchedSizes(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout: Layout{Rows: 2, Cols: 2},
		Width:  400,
		Height: 300,
	})

	// A solid color survives cropping and scaling unchanged, so cells must
	// still be uniform.
	canvas, err := comp.Compose([]image.Image{
		solid(1234, 777, red),
		solid(50, 400, green),
		solid(400, 50, blue),
		solid(200, 150, yellow),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	sampleRegion(t, canvas, image.Rect(0, 0, 200, 150), red, "top-left")
	sampleRegion(t, canvas, image.Rect(200, 0, 400, 150), green, "top-right")
	sampleRegion(t, canvas, image.Rect(0, 150, 200, 300), blue, "bottom-left")
	sampleRegion(t, canvas, image.Rect(200, 150, 400, 300), yellow, "bottom-right")
}

func TestCompose_BorderShowsBackground(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout:        Layout{Rows: 2, Cols: 2},
		Width:         400,
		Height:        300,
		BorderPercent: 1, // 4px border on a 400px canvas
	})

	canvas, err := comp.Compose([]image.Image{
		solid(196, 146, red),
		solid(196, 146, red),
		solid(196, 146, red),
		solid(196, 146, red),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	// Border strip down the left edge stays background-colored.
	sampleRegion(t, canvas, image.Rect(0, 0, 4, 300), white, "left border")
	// First cell starts after the border.
	sampleRegion(t, canvas, image.Rect(4, 4, 8, 8), red, "first cell corner")
}

func TestCompose_BackgroundImage(t *testing.T) {
	comp := newTestComposer(t, Params{
		Layout:        Layout{Rows: 1, Cols: 1},
		Width:         200,
		Height:        100,
		BorderPercent: 5, // 10px border reveals the background
		Background:    solid(20, 10, blue),
	})

	canvas, err := comp.Compose([]image.Image{solid(180, 80, red)})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	sampleRegion(t, canvas, image.Rect(0, 0, 10, 100), blue, "background border")
	sampleRegion(t, canvas, image.Rect(10, 10, 190, 90), red, "photo cell")
}

func TestCenterCrop(t *testing.T) {
	cases := []struct {
		name   string
		src    image.Rectangle
		cw, ch int
		want   image.Rectangle
	}{
		{"same_aspect", image.Rect(0, 0, 800, 600), 400, 300, image.Rect(0, 0, 800, 600)},
		{"wider_source", image.Rect(0, 0, 1000, 500), 400, 400, image.Rect(250, 0, 750, 500)},
		{"taller_source", image.Rect(0, 0, 500, 1000), 400, 400, image.Rect(0, 250, 500, 750)},
		{"offset_bounds", image.Rect(10, 20, 810, 420), 400, 400, image.Rect(210, 20, 610, 420)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := centerCrop(tc.src, tc.cw, tc.ch)
			if got != tc.want {
				t.Errorf("centerCrop(%v, %d, %d) = %v, want %v", tc.src, tc.cw, tc.ch, got, tc.want)
			}
		})
	}
}

func TestNewComposer_Invalid(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"zero_layout", Params{Width: 400, Height: 300}},
		{"zero_canvas", Params{Layout: Layout{Rows: 2, Cols: 2}}},
		{"border_eats_canvas", Params{Layout: Layout{Rows: 2, Cols: 2}, Width: 10, Height: 10, BorderPercent: 40}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewComposer(tc.p)
			var invalid *InvalidInputError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidInputError, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := solid(64, 48, green)
	data, err := EncodeJPEG(src)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("decoded size = %v, want 64x48", img.Bounds())
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError, got %v", err)
	}
}
