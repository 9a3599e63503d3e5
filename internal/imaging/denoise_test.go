package imaging

import (
	"image"
	"image/color"
	"testing"
)

func speckledImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 9, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	img.Set(4, 4, color.RGBA{255, 255, 255, 255})
	return img
}

func TestNewDenoiser(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"", false},
		{"none", false},
		{"gaussian", false},
		{"median", false},
		{"nlmeans", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			d, err := NewDenoiser(tt.kind, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d == nil {
				t.Error("nil denoiser without error")
			}
		})
	}
}

func TestDenoisers_PreserveSize(t *testing.T) {
	img := speckledImage()
	for _, d := range []Denoiser{NopDenoiser{}, GaussianDenoiser{Sigma: 1}, MedianDenoiser{Radius: 1}} {
		out := d.Denoise(img)
		if out.Bounds().Dx() != 9 || out.Bounds().Dy() != 9 {
			t.Errorf("%T: got %v, want 9x9", d, out.Bounds())
		}
	}
}

func TestMedianDenoiser_RemovesSpeckle(t *testing.T) {
	out := MedianDenoiser{Radius: 1}.Denoise(speckledImage())
	c := out.NRGBAAt(4, 4)
	if c.R != 100 {
		t.Errorf("speckle survived median filter: got R=%d, want 100", c.R)
	}
}

func TestGaussianDenoiser_SpreadsSpeckle(t *testing.T) {
	out := GaussianDenoiser{Sigma: 1}.Denoise(speckledImage())
	center := out.NRGBAAt(4, 4)
	if center.R >= 255 || center.R <= 100 {
		t.Errorf("center after blur: got R=%d, want strictly between 100 and 255", center.R)
	}
}
