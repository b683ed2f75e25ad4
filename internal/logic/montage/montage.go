package montage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/larsjh/gobooth/internal/debug"
)

// InvalidInputError reports an image count or size the composer cannot lay out.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "montage: " + e.Reason
}

// Layout is the grid the photos are arranged in, row-major.
type Layout struct {
	Rows int
	Cols int
}

// Cells returns the number of photos the layout holds.
func (l Layout) Cells() int { return l.Rows * l.Cols }

// LayoutFor maps a photo count to its square grid. Only 1, 4 and 9 are
// supported.
func LayoutFor(n int) (Layout, error) {
	switch n {
	case 1:
		return Layout{Rows: 1, Cols: 1}, nil
	case 4:
		return Layout{Rows: 2, Cols: 2}, nil
	case 9:
		return Layout{Rows: 3, Cols: 3}, nil
	default:
		return Layout{}, &InvalidInputError{Reason: fmt.Sprintf("%d images, only 1, 4 or 9 are supported", n)}
	}
}

// Composer lays out a fixed number of photos on a fixed-size canvas.
// Compose is pure: identical inputs always produce identical canvases.
type Composer struct {
	layout     Layout
	width      int
	height     int
	border     int         // pixel gap around and between cells, 0 = edge-to-edge
	background image.Image // nil = white canvas
}

// Params configures a Composer.
type Params struct {
	Layout        Layout
	Width         int
	Height        int
	BorderPercent float64     // border as a percentage of canvas width
	Background    image.Image // optional; scaled to the canvas
}

// NewComposer validates params and returns a composer.
func NewComposer(p Params) (*Composer, error) {
	if p.Layout.Rows <= 0 || p.Layout.Cols <= 0 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("layout %dx%d is not usable", p.Layout.Rows, p.Layout.Cols)}
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("canvas %dx%d is not usable", p.Width, p.Height)}
	}
	border := int(float64(p.Width) * p.BorderPercent / 100.0)
	if border < 0 {
		border = 0
	}
	cellW := (p.Width - (p.Layout.Cols+1)*border) / p.Layout.Cols
	cellH := (p.Height - (p.Layout.Rows+1)*border) / p.Layout.Rows
	if cellW <= 0 || cellH <= 0 {
		return nil, &InvalidInputError{Reason: "border leaves no room for photos"}
	}
	return &Composer{
		layout:     p.Layout,
		width:      p.Width,
		height:     p.Height,
		border:     border,
		background: p.Background,
	}, nil
}

// CellSize returns the size each photo is fitted to.
func (c *Composer) CellSize() (w, h int) {
	w = (c.width - (c.layout.Cols+1)*c.border) / c.layout.Cols
	h = (c.height - (c.layout.Rows+1)*c.border) / c.layout.Rows
	return w, h
}

// Compose pastes the images onto a fresh canvas, row-major in capture order.
// The number of images must match the layout exactly. Each image is
// center-cropped to the cell aspect ratio and scaled to the cell size; an
// image that already has the cell size is copied pixel for pixel.
func (c *Composer) Compose(images []image.Image) (*image.RGBA, error) {
	if len(images) != c.layout.Cells() {
		return nil, &InvalidInputError{
			Reason: fmt.Sprintf("got %d images, layout %dx%d needs %d",
				len(images), c.layout.Rows, c.layout.Cols, c.layout.Cells()),
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	if c.background != nil {
		xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), c.background, c.background.Bounds(), xdraw.Src, nil)
	} else {
		xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	}

	cellW, cellH := c.CellSize()
	for k, img := range images {
		col := k % c.layout.Cols
		row := k / c.layout.Cols
		x := c.border + col*(cellW+c.border)
		y := c.border + row*(cellH+c.border)
		cell := image.Rect(x, y, x+cellW, y+cellH)
		pasteCell(canvas, cell, img)
		debug.Verbose("Montage: image %d -> cell (row=%d, col=%d) at (%d,%d)", k+1, row, col, x, y)
	}

	return canvas, nil
}

// pasteCell draws src into dst's cell rectangle. Sources matching the cell
// size are copied directly; others are center-cropped to the cell aspect and
// scaled.
func pasteCell(dst *image.RGBA, cell image.Rectangle, src image.Image) {
	b := src.Bounds()
	if b.Dx() == cell.Dx() && b.Dy() == cell.Dy() {
		xdraw.Draw(dst, cell, src, b.Min, xdraw.Src)
		return
	}
	crop := centerCrop(b, cell.Dx(), cell.Dy())
	xdraw.ApproxBiLinear.Scale(dst, cell, src, crop, xdraw.Src, nil)
}

// centerCrop returns the largest centered sub-rectangle of b with the target
// aspect ratio cw:ch.
func centerCrop(b image.Rectangle, cw, ch int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w*ch > h*cw {
		// source is wider than the cell: trim the sides
		newW := h * cw / ch
		x0 := b.Min.X + (w-newW)/2
		return image.Rect(x0, b.Min.Y, x0+newW, b.Max.Y)
	}
	// source is taller than the cell: trim top and bottom
	newH := w * ch / cw
	y0 := b.Min.Y + (h-newH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+newH)
}

// Decode parses capture bytes into an image. JPEG, PNG and GIF are accepted.
func Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("decode capture: %v", err)}
	}
	debug.Verbose("Montage: decoded %s image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// EncodeJPEG serializes an image for storage and printing.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
