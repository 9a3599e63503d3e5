// Package imaging provides the pixel-level operations behind segmentation:
// loading, denoising, color feature extraction, cropping and pasting focus
// zones, measuring segments and rendering label images.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Label images are row-major []int slices of width*height entries, where
// labels[y*width+x] is the segment of pixel (x, y).
//
// # Pixel Buffers
//
// PixelBuffer is the interleaved RGBA byte layout consumed by the
// segmentation packages. Feature extractors (LabFeatures, NormalizedRGB)
// turn a buffer into flat per-pixel float slices.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors wrapping segerr.ErrInvalidDimensions when a label
// slice does not match its image, or a region falls outside the image.
package imaging
