package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

func TestNewPixelBuffer_TranslatesBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 13, 22))
	img.Set(10, 20, color.RGBA{1, 2, 3, 255})
	img.Set(12, 21, color.RGBA{4, 5, 6, 255})

	buf, err := NewPixelBuffer(img)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	if buf.Width != 3 || buf.Height != 2 {
		t.Fatalf("dimensions: got %dx%d, want 3x2", buf.Width, buf.Height)
	}
	if r, g, b := buf.RGB(0, 0); r != 1 || g != 2 || b != 3 {
		t.Errorf("pixel (0,0): got (%d,%d,%d), want (1,2,3)", r, g, b)
	}
	if r, g, b := buf.RGB(2, 1); r != 4 || g != 5 || b != 6 {
		t.Errorf("pixel (2,1): got (%d,%d,%d), want (4,5,6)", r, g, b)
	}
	if err := buf.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewPixelBuffer_Empty(t *testing.T) {
	_, err := NewPixelBuffer(image.NewRGBA(image.Rect(0, 0, 0, 5)))
	if !errors.Is(err, segerr.ErrInvalidDimensions) {
		t.Errorf("got %v, want ErrInvalidDimensions", err)
	}
}

func TestPixelBuffer_Validate(t *testing.T) {
	tests := []struct {
		name string
		buf  *PixelBuffer
	}{
		{"nil", nil},
		{"zero width", &PixelBuffer{Width: 0, Height: 2}},
		{"short pix", &PixelBuffer{Width: 2, Height: 2, Pix: make([]uint8, 8)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.buf.Validate(); !errors.Is(err, segerr.ErrInvalidDimensions) {
				t.Errorf("got %v, want ErrInvalidDimensions", err)
			}
		})
	}
}

func TestPixelBuffer_ImageSharesPixels(t *testing.T) {
	buf := solidBuffer(2, 2, 0, 0, 0)
	img := buf.Image()
	img.Set(1, 1, color.NRGBA{9, 8, 7, 255})

	if r, g, b := buf.RGB(1, 1); r != 9 || g != 8 || b != 7 {
		t.Errorf("got (%d,%d,%d), want (9,8,7)", r, g, b)
	}
}
