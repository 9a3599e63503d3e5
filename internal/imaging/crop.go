package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// CropImage extracts rect from img as a PixelBuffer. Pixel (0,0) of the
// result is rect.Min of the source.
func CropImage(img image.Image, rect image.Rectangle) (*PixelBuffer, error) {
	bounds := img.Bounds()
	if !rect.In(bounds) || rect.Empty() {
		return nil, segerr.Dimensions("crop region %v outside image bounds %v", rect, bounds)
	}
	return NewPixelBuffer(imaging.Crop(img, rect))
}

// CropLabels copies the labels inside rect out of a width×height label
// image. The result is rect.Dx()×rect.Dy(), row-major.
func CropLabels(labels []int, width, height int, rect image.Rectangle) ([]int, error) {
	if err := checkLabelRect(labels, width, height, rect); err != nil {
		return nil, err
	}
	w := rect.Dx()
	out := make([]int, w*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		copy(out[(y-rect.Min.Y)*w:(y-rect.Min.Y+1)*w], labels[y*width+rect.Min.X:y*width+rect.Max.X])
	}
	return out, nil
}

// PasteLabels writes src (rect.Dx()×rect.Dy()) into dst at rect, adding
// offset to every value.
func PasteLabels(dst []int, width, height int, src []int, rect image.Rectangle, offset int) error {
	if err := checkLabelRect(dst, width, height, rect); err != nil {
		return err
	}
	w := rect.Dx()
	if len(src) != w*rect.Dy() {
		return segerr.Dimensions("source holds %d labels, region %v needs %d", len(src), rect, w*rect.Dy())
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := src[(y-rect.Min.Y)*w : (y-rect.Min.Y+1)*w]
		for x, v := range row {
			dst[y*width+rect.Min.X+x] = v + offset
		}
	}
	return nil
}

// PasteImage draws src over dst with its top-left corner at at.
func PasteImage(dst *PixelBuffer, src image.Image, at image.Point) *PixelBuffer {
	out := imaging.Paste(dst.Image(), src, at)
	return &PixelBuffer{Width: out.Rect.Dx(), Height: out.Rect.Dy(), Pix: out.Pix}
}

func checkLabelRect(labels []int, width, height int, rect image.Rectangle) error {
	if len(labels) != width*height {
		return segerr.Dimensions("label image holds %d labels, want %d for %dx%d", len(labels), width*height, width, height)
	}
	if rect.Empty() || !rect.In(image.Rect(0, 0, width, height)) {
		return segerr.Dimensions("region %v outside label image %dx%d", rect, width, height)
	}
	return nil
}
