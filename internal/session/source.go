package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/extent-mcp/internal/imaging"
	"github.com/ironsheep/extent-mcp/internal/segment"
)

// Source yields frames for the live loop. Next returns io.EOF when no more
// frames are available.
type Source interface {
	Next(ctx context.Context) (*imaging.Loaded, error)
}

// imageExts lists the file extensions DirSource picks up.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DirSource replays the image files of a directory in name order.
type DirSource struct {
	files []string
	loop  bool
	cache *imaging.FrameCache

	mu   sync.Mutex
	next int
}

// NewDirSource lists the image files in dir. With loop set, playback wraps
// around instead of ending. cache may be nil; when given, a looping source
// keeps decoded frames for the next pass and a single pass drops them.
func NewDirSource(dir string, loop bool, cache *imaging.FrameCache) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s: %w", dir, segment.ErrInvalidInput)
	}

	return &DirSource{files: files, loop: loop, cache: cache}, nil
}

// Len returns the number of frames in one pass.
func (d *DirSource) Len() int { return len(d.files) }

// Next loads the next frame.
func (d *DirSource) Next(ctx context.Context) (*imaging.Loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.next >= len(d.files) {
		if !d.loop {
			d.mu.Unlock()
			return nil, io.EOF
		}
		d.next = 0
	}
	path := d.files[d.next]
	d.next++
	d.mu.Unlock()

	if d.cache == nil {
		return imaging.LoadFrame(path)
	}
	if d.loop {
		return d.cache.Load(path)
	}
	d.cache.Evict(path)
	return imaging.LoadFrame(path)
}
