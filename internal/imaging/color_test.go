package imaging

import (
	"math"
	"testing"
)

func solidBuffer(width, height int, r, g, b uint8) *PixelBuffer {
	buf := &PixelBuffer{Width: width, Height: height, Pix: make([]uint8, width*height*Channels)}
	for i := 0; i < width*height; i++ {
		buf.Pix[i*Channels+0] = r
		buf.Pix[i*Channels+1] = g
		buf.Pix[i*Channels+2] = b
		buf.Pix[i*Channels+3] = 255
	}
	return buf
}

func TestRgbToLab(t *testing.T) {
	tests := []struct {
		name     string
		r, g, b  uint8
		l, a, bb float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 100.0, 0.005, -0.010},
		{"red", 255, 0, 0, 53.233, 80.109, 67.220},
		{"green", 0, 255, 0, 87.737, -86.185, 83.181},
		{"blue", 0, 0, 255, 32.303, 79.197, -107.864},
		{"mid gray", 128, 128, 128, 53.585, 0.003, -0.006},
		// Luminance below the 0.008856 knee exercises the linear branch.
		{"near black", 10, 10, 10, 2.742, 0, 0},
	}

	const tol = 0.01
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, a, b := rgbToLab(tt.r, tt.g, tt.b)
			if math.Abs(l-tt.l) > tol || math.Abs(a-tt.a) > tol || math.Abs(b-tt.bb) > tol {
				t.Errorf("rgbToLab(%d,%d,%d): got (%.3f, %.3f, %.3f), want (%.3f, %.3f, %.3f)",
					tt.r, tt.g, tt.b, l, a, b, tt.l, tt.a, tt.bb)
			}
		})
	}
}

func TestLabFeatures_AppliesRatio(t *testing.T) {
	buf := solidBuffer(3, 2, 255, 0, 0)

	full := LabFeatures(buf, 1.0)
	half := LabFeatures(buf, 0.5)

	if len(full) != 3*2*3 {
		t.Fatalf("len: got %d, want %d", len(full), 18)
	}
	for i := range full {
		if math.Abs(half[i]-0.5*full[i]) > 1e-9 {
			t.Errorf("feature %d: got %v, want %v", i, half[i], 0.5*full[i])
		}
	}
	if math.Abs(full[0]-53.233) > 0.01 {
		t.Errorf("L of red: got %v, want ~53.233", full[0])
	}
}

func TestLabFeatures_IgnoresAlpha(t *testing.T) {
	opaque := solidBuffer(1, 1, 40, 90, 200)
	transparent := solidBuffer(1, 1, 40, 90, 200)
	transparent.Pix[3] = 0

	a := LabFeatures(opaque, 1)
	b := LabFeatures(transparent, 1)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("channel %d differs with alpha: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNormalizedRGB(t *testing.T) {
	buf := solidBuffer(2, 1, 255, 0, 51)
	got := NormalizedRGB(buf)
	want := []float64{1, 0, 0.2, 1, 0, 0.2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
