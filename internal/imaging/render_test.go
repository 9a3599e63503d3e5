package imaging

import (
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

func TestRenderBoundaries(t *testing.T) {
	img := createInMemoryImage(4, 2, color.White)
	labels := []int{
		0, 0, 1, 1,
		0, 0, 1, 1,
	}
	red := color.RGBA{255, 0, 0, 255}

	out, err := RenderBoundaries(img, labels, red)
	if err != nil {
		t.Fatalf("RenderBoundaries failed: %v", err)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := out.NRGBAAt(x, y)
			isBorder := x == 1
			if isBorder && (c.R != 255 || c.G != 0) {
				t.Errorf("pixel (%d,%d): got %v, want red border", x, y, c)
			}
			if !isBorder && (c.R != 255 || c.G != 255 || c.B != 255) {
				t.Errorf("pixel (%d,%d): got %v, want white interior", x, y, c)
			}
		}
	}
}

func TestRenderBoundaries_SizeMismatch(t *testing.T) {
	img := createInMemoryImage(4, 2, color.White)
	_, err := RenderBoundaries(img, []int{0, 1}, color.Black)
	if !errors.Is(err, segerr.ErrInvalidDimensions) {
		t.Errorf("got %v, want ErrInvalidDimensions", err)
	}
}

func TestRenderLabels_StableColors(t *testing.T) {
	labels := []int{3, 3, 7, 3}
	out, err := RenderLabels(labels, 2, 2)
	if err != nil {
		t.Fatalf("RenderLabels failed: %v", err)
	}

	if out.NRGBAAt(0, 0) != out.NRGBAAt(1, 1) {
		t.Errorf("same label rendered differently: %v vs %v", out.NRGBAAt(0, 0), out.NRGBAAt(1, 1))
	}
	if out.NRGBAAt(0, 0) == out.NRGBAAt(0, 1) {
		t.Errorf("labels 3 and 7 share color %v", out.NRGBAAt(0, 0))
	}
	if got, want := out.NRGBAAt(0, 1), LabelColor(7); got != want {
		t.Errorf("label 7: got %v, want %v", got, want)
	}
}

func TestLabelColor_Distinct(t *testing.T) {
	seen := make(map[color.NRGBA]int)
	for l := 0; l < 20; l++ {
		c := LabelColor(l)
		if c.A != 255 {
			t.Errorf("label %d: alpha %d, want 255", l, c.A)
		}
		if prev, ok := seen[c]; ok {
			t.Errorf("labels %d and %d share color %v", prev, l, c)
		}
		seen[c] = l
	}
}

func TestAnnotateSegments(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	AnnotateSegments(img, map[int]image.Point{
		12: {X: 20, Y: 10},
		99: {X: 500, Y: 500}, // outside, skipped
	}, color.White)

	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("no glyph pixels drawn")
	}
}

func TestEncodePNGBase64(t *testing.T) {
	result, err := EncodePNGBase64(createPatternImage(8, 6))
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	if result.Width != 8 || result.Height != 6 {
		t.Errorf("dimensions: got %dx%d, want 8x6", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if _, err := base64.StdEncoding.DecodeString(result.ImageBase64); err != nil {
		t.Errorf("failed to decode base64: %v", err)
	}
}

func TestSave_Formats(t *testing.T) {
	dir := t.TempDir()
	img := createPatternImage(6, 6)

	for _, name := range []string{"out.png", "out.webp", "out.jpg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, img); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Size() == 0 {
				t.Error("empty output file")
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		wantR   uint8
		wantG   uint8
		wantB   uint8
		wantA   uint8
		wantErr bool
	}{
		{"#FF0000", 255, 0, 0, 255, false},
		{"#00FF00", 0, 255, 0, 255, false},
		{"FF0000", 255, 0, 0, 255, false},    // without #
		{"#FF000080", 255, 0, 0, 128, false}, // with alpha
		{"", 0, 0, 0, 0, true},               // empty
		{"#FFF", 0, 0, 0, 0, true},           // invalid length
		{"#GGGGGG", 0, 0, 0, 0, true},        // invalid hex
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ParseHexColor(tt.hex)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if c.R != tt.wantR || c.G != tt.wantG || c.B != tt.wantB || c.A != tt.wantA {
				t.Errorf("got (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					c.R, c.G, c.B, c.A, tt.wantR, tt.wantG, tt.wantB, tt.wantA)
			}
		})
	}
}
