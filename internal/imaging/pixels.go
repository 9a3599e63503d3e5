package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Channels is the number of bytes stored per pixel in a PixelBuffer (RGBA).
// Only the first three are read by the segmentation code.
const Channels = 4

// PixelBuffer is a packed, non-premultiplied 8-bit RGBA raster with its
// origin at (0,0). Pixel (x, y) starts at Pix[(y*Width+x)*Channels].
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer copies img into a PixelBuffer, translating its bounds to
// the origin.
//
// Returns an error wrapping segerr.ErrInvalidDimensions for empty images.
func NewPixelBuffer(img image.Image) (*PixelBuffer, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, segerr.Dimensions("image is %dx%d", b.Dx(), b.Dy())
	}
	nrgba := imaging.Clone(img)
	return &PixelBuffer{Width: nrgba.Rect.Dx(), Height: nrgba.Rect.Dy(), Pix: nrgba.Pix}, nil
}

// Len returns the number of pixels.
func (b *PixelBuffer) Len() int {
	return b.Width * b.Height
}

// Validate checks that the buffer is non-empty and that Pix matches the
// declared dimensions.
func (b *PixelBuffer) Validate() error {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return segerr.Dimensions("pixel buffer has no pixels")
	}
	if len(b.Pix) != b.Len()*Channels {
		return segerr.Dimensions("pixel buffer holds %d bytes, want %d for %dx%d",
			len(b.Pix), b.Len()*Channels, b.Width, b.Height)
	}
	return nil
}

// RGB returns the color channels of pixel (x, y).
func (b *PixelBuffer) RGB(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * Channels
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Image wraps the buffer as an *image.NRGBA sharing the same pixels.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * Channels,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
