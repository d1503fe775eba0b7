package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// Loaded is a decoded image file together with the frame pair the pipeline
// consumes.
//
// Color carries R, G, B and HSV carries the half-turn hue representation
// produced by ToFrames. Both frames share the image's dimensions.
type Loaded struct {
	Path  string
	Image *image.NRGBA
	Color *segment.Frame
	HSV   *segment.Frame
	Info  FrameInfo

	modTime time.Time
}

// FrameInfo contains metadata about a loaded image file.
type FrameInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", "bmp",
	// "tiff", or "unknown". Detection is based on file extension.
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadFrame decodes the image at path and converts it to a color/HSV frame
// pair.
//
// EXIF orientation is applied, so frames from cameras come out upright.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func LoadFrame(path string) (*Loaded, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	nrgba := imaging.Clone(img)
	rgb, hsv := ToFrames(nrgba)
	b := nrgba.Bounds()

	return &Loaded{
		Path:  path,
		Image: nrgba,
		Color: rgb,
		HSV:   hsv,
		Info: FrameInfo{
			Width:         b.Dx(),
			Height:        b.Dy(),
			Format:        formatFromExt(path),
			FileSizeBytes: stat.Size(),
		},
		modTime: stat.ModTime(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	}
	return "unknown"
}

// FrameCache provides thread-safe caching of loaded frames to avoid redundant
// disk reads and color conversions.
//
// Frames are keyed by the exact path string given to Load. Cached values are
// shared between callers and must be treated as read-only; clone a frame
// before mutating it.
//
// An entry is reloaded when the file's modification time or size changes.
//
// # Memory Management
//
// Cached frames remain in memory until explicitly removed via Evict().
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]*Loaded
}

// NewFrameCache creates an empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]*Loaded),
	}
}

// Load retrieves a frame from the cache or loads it from disk if not cached
// or if the file changed since it was cached.
func (c *FrameCache) Load(path string) (*Loaded, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	c.mu.RLock()
	l, ok := c.frames[path]
	c.mu.RUnlock()
	if ok && l.modTime.Equal(stat.ModTime()) && l.Info.FileSizeBytes == stat.Size() {
		return l, nil
	}

	l, err = LoadFrame(path)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = l
	c.mu.Unlock()

	return l, nil
}

// Evict removes a specific frame from the cache by its path.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}
