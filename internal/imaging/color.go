package imaging

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// sRGB (D65) linear RGB to XYZ coefficients, XYZ scaled to [0,1].
var rgbToXYZ = [3][3]float64{
	{0.4124, 0.3576, 0.1805},
	{0.2126, 0.7152, 0.0722},
	{0.0193, 0.1192, 0.9505},
}

// LabFeatures converts every pixel of buf to CIE L*a*b* and multiplies each
// component by ratio.
//
// The result holds three float64 values per pixel in row-major order, so the
// features of pixel (x, y) live at [(y*Width+x)*3 : (y*Width+x)*3+3].
//
// # Conversion
//
//  1. Normalize each 8-bit channel to [0,1].
//  2. sRGB inverse companding: v/12.92 for v <= 0.04045, otherwise
//     ((v+0.055)/1.055)^2.4.
//  3. Linear RGB to XYZ with the sRGB/D65 matrix.
//  4. XYZ to Lab relative to the D65 white point; the cube root is replaced
//     by 7.787*t + 16/116 for t <= 0.008856.
//
// L lies in [0,100]; a and b roughly in [-128,127] before scaling. Alpha is
// ignored. The ratio trades color similarity against spatial proximity in
// the quickshift feature space: lower values favor spatially compact
// segments.
func LabFeatures(buf *PixelBuffer, ratio float64) []float64 {
	n := buf.Len()
	out := make([]float64, n*3)
	for i := 0; i < n; i++ {
		p := buf.Pix[i*Channels : i*Channels+3]
		l, a, b := rgbToLab(p[0], p[1], p[2])
		out[i*3+0] = ratio * l
		out[i*3+1] = ratio * a
		out[i*3+2] = ratio * b
	}
	return out
}

// rgbToLab converts one 8-bit sRGB color to L*a*b* with L in [0,100].
func rgbToLab(r8, g8, b8 uint8) (l, a, b float64) {
	c := colorful.Color{R: float64(r8) / 255.0, G: float64(g8) / 255.0, B: float64(b8) / 255.0}
	r, g, bl := c.LinearRgb()

	x := rgbToXYZ[0][0]*r + rgbToXYZ[0][1]*g + rgbToXYZ[0][2]*bl
	y := rgbToXYZ[1][0]*r + rgbToXYZ[1][1]*g + rgbToXYZ[1][2]*bl
	z := rgbToXYZ[2][0]*r + rgbToXYZ[2][1]*g + rgbToXYZ[2][2]*bl

	// go-colorful reports L in [0,1] and a, b scaled by the same factor.
	l, a, b = colorful.XyzToLabWhiteRef(x, y, z, colorful.D65)
	return l * 100, a * 100, b * 100
}

// NormalizedRGB returns the color channels of every pixel scaled to [0,1],
// three values per pixel in row-major order. This is the space in which
// region mean colors are compared when merging.
func NormalizedRGB(buf *PixelBuffer) []float64 {
	n := buf.Len()
	out := make([]float64, n*3)
	for i := 0; i < n; i++ {
		out[i*3+0] = float64(buf.Pix[i*Channels+0]) / 255.0
		out[i*3+1] = float64(buf.Pix[i*Channels+1]) / 255.0
		out[i*3+2] = float64(buf.Pix[i*Channels+2]) / 255.0
	}
	return out
}
