package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// RenderResult contains a rendered segmentation encoded as base64 PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderBoundaries draws the borders between segments over img.
//
// A pixel is a border pixel when its right or bottom 4-neighbor carries a
// different label. labels must match the image dimensions.
func RenderBoundaries(img image.Image, labels []int, boundary color.Color) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	width, height := out.Rect.Dx(), out.Rect.Dy()
	if len(labels) != width*height {
		return nil, segerr.Dimensions("label image holds %d labels, want %d for %dx%d", len(labels), width*height, width, height)
	}

	c := color.NRGBAModel.Convert(boundary).(color.NRGBA)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			l := labels[y*width+x]
			if (x+1 < width && labels[y*width+x+1] != l) || (y+1 < height && labels[(y+1)*width+x] != l) {
				out.SetNRGBA(x, y, c)
			}
		}
	}
	return out, nil
}

// RenderLabels paints every segment in a flat color. Colors are derived
// from the label value alone, so a label keeps its color across renders.
func RenderLabels(labels []int, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(labels) != width*height {
		return nil, segerr.Dimensions("label image holds %d labels, want %d for %dx%d", len(labels), width*height, width, height)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	palette := make(map[int]color.NRGBA)
	for i, l := range labels {
		c, ok := palette[l]
		if !ok {
			c = LabelColor(l)
			palette[l] = c
		}
		out.Pix[i*4+0] = c.R
		out.Pix[i*4+1] = c.G
		out.Pix[i*4+2] = c.B
		out.Pix[i*4+3] = c.A
	}
	return out, nil
}

// LabelColor returns the display color of a label. Hues advance by the
// golden angle so consecutive labels are far apart on the color wheel.
func LabelColor(label int) color.NRGBA {
	const goldenAngle = 137.50776405003785
	if label < 0 {
		label = -label
	}
	hue := math.Mod(float64(label)*goldenAngle, 360)
	sat := 0.55 + 0.35*float64(label%3)/2
	r, g, b := colorful.Hsv(hue, sat, 0.9).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// AnnotateSegments writes each label's id at its anchor point using the
// 7x13 bitmap font. Anchors outside the image are skipped.
func AnnotateSegments(img *image.NRGBA, anchors map[int]image.Point, fg color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
	}
	for label, p := range anchors {
		if !p.In(img.Rect) {
			continue
		}
		text := strconv.Itoa(label)
		// Center horizontally, baseline a few pixels below the anchor.
		w := d.MeasureString(text)
		d.Dot = fixed.Point26_6{X: fixed.I(p.X) - w/2, Y: fixed.I(p.Y + 4)}
		d.DrawString(text)
	}
}

// EncodePNGBase64 encodes img as PNG and wraps it in a RenderResult.
func EncodePNGBase64(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes img to path. The format follows the extension: ".webp" is
// encoded losslessly with nativewebp, everything else is handled by
// disintegration/imaging (png, jpeg, gif, tiff, bmp).
func Save(path string, img image.Image) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := nativewebp.Encode(f, img, nil); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return f.Close()
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
