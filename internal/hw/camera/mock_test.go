package camera

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"
)

func TestMockCaptureProducesJPEG(t *testing.T) {
	m := NewMock(800, 600)

	data, err := m.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode mock frame: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Errorf("frame = %v, want 800x600", img.Bounds())
	}
}

func TestMockCyclesColors(t *testing.T) {
	m := NewMock(16, 16)

	first, err := m.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	second, err := m.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("consecutive mock frames are identical, want distinct colors")
	}
	if m.ShotCount() != 2 {
		t.Errorf("ShotCount = %d, want 2", m.ShotCount())
	}
}

func TestMockCaptureCancelledContext(t *testing.T) {
	m := NewMock(16, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Capture(ctx)
	if err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}
