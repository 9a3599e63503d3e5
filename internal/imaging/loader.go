package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded images keyed by their
// absolute path.
//
// Decoding goes through disintegration/imaging with EXIF auto-orientation,
// so a photo is segmented the way it is displayed. Supported formats are
// PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Cached images remain in memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*cachedImage
}

type cachedImage struct {
	img    image.Image
	format string
	size   int64
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{images: make(map[string]*cachedImage)}
}

// Load returns the decoded image at path, reading it from disk on first use.
func (c *ImageCache) Load(path string) (image.Image, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

func (c *ImageCache) load(path string) (*cachedImage, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[key]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	format, size, err := probeFile(key)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(key, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	entry = &cachedImage{img: img, format: format, size: size}
	c.mu.Lock()
	c.images[key] = entry
	c.mu.Unlock()
	return entry, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*cachedImage)
	c.mu.Unlock()
}

// Evict removes the image loaded from path, if any.
func (c *ImageCache) Evict(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"` // decoder name: "png", "jpeg", "gif", "bmp", "tiff", "webp"
	Pixels        int    `json:"pixels"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and describes it. The format
// comes from the file contents, not its extension.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	entry, err := cache.load(path)
	if err != nil {
		return nil, err
	}
	b := entry.img.Bounds()
	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        entry.format,
		Pixels:        b.Dx() * b.Dy(),
		FileSizeBytes: entry.size,
	}, nil
}

// DescribeImage reports the file metadata of path without decoding its
// pixels; the geometry is taken from bounds, the already decoded image.
func DescribeImage(path string, bounds image.Rectangle) (*ImageInfo, error) {
	format, size, err := probeFile(path)
	if err != nil {
		return nil, err
	}
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Pixels:        bounds.Dx() * bounds.Dy(),
		FileSizeBytes: size,
	}, nil
}

// probeFile reads only the image header of path.
func probeFile(path string) (format string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	if _, format, err = image.DecodeConfig(f); err != nil {
		return "", 0, fmt.Errorf("failed to decode image: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return format, stat.Size(), nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of the image at path.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}
