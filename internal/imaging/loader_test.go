package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// createTestImage creates a simple test image file and returns its path.
// The file lives in a per-test temporary directory.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img, "test-image.png")
}

func writePNG(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoadFrame(t *testing.T) {
	path := createTestImage(t, 100, 50, color.RGBA{220, 40, 30, 255})

	l, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}

	if l.Info.Width != 100 || l.Info.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", l.Info.Width, l.Info.Height)
	}
	if l.Info.Format != "png" {
		t.Errorf("Format: got %q, want png", l.Info.Format)
	}
	if l.Info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", l.Info.FileSizeBytes)
	}
	if l.Color.Width != 100 || l.HSV.Height != 50 {
		t.Errorf("frame sizes: color %dx%d, hsv %dx%d", l.Color.Width, l.Color.Height, l.HSV.Width, l.HSV.Height)
	}
	if got := l.Color.At(10, 10); got != [3]uint8{220, 40, 30} {
		t.Errorf("color pixel: got %v", got)
	}
	if got := l.HSV.At(10, 10); got != [3]uint8{2, 220, 220} {
		t.Errorf("hsv pixel: got %v", got)
	}
}

func TestLoadFrame_NonExistent(t *testing.T) {
	_, err := LoadFrame("/nonexistent/path/image.png")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadFrame_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := LoadFrame(path)
	if err == nil {
		t.Error("expected error for invalid image")
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.png", "png"},
		{"a.JPG", "jpeg"},
		{"a.jpeg", "jpeg"},
		{"a.gif", "gif"},
		{"a.bmp", "bmp"},
		{"a.tiff", "tiff"},
		{"a.webp", "unknown"},
		{"noext", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := formatFromExt(tt.path); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameCache_Load(t *testing.T) {
	path := createTestImage(t, 20, 20, color.RGBA{0, 0, 255, 255})
	cache := NewFrameCache()

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("second Load should return the cached frame")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestFrameCache_Evict(t *testing.T) {
	p1 := createTestImage(t, 10, 10, color.RGBA{255, 0, 0, 255})
	p2 := createTestImage(t, 10, 10, color.RGBA{0, 255, 0, 255})
	cache := NewFrameCache()

	for _, p := range []string{p1, p2} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	// Both files share a name in different temp dirs.
	if cache.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", cache.Len())
	}

	cache.Evict(p1)
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d, want 1", cache.Len())
	}
	cache.Evict("not-cached.png")
	if cache.Len() != 1 {
		t.Errorf("evicting an unknown path: got %d, want 1", cache.Len())
	}
}

func TestFrameCache_ReloadsChangedFile(t *testing.T) {
	path := createTestImage(t, 10, 10, color.RGBA{255, 0, 0, 255})
	cache := NewFrameCache()

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rewritten := createTestImage(t, 30, 20, color.RGBA{0, 255, 0, 255})
	data, err := os.ReadFile(rewritten)
	if err != nil {
		t.Fatalf("failed to read image: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to rewrite image: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("failed to touch image: %v", err)
	}

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if second == first {
		t.Fatal("changed file served from the cache")
	}
	if second.Info.Width != 30 || second.Info.Height != 20 {
		t.Errorf("size: got %dx%d, want 30x20", second.Info.Width, second.Info.Height)
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestFrameCache_EvictsDeletedFile(t *testing.T) {
	path := createTestImage(t, 10, 10, color.RGBA{255, 0, 0, 255})
	cache := NewFrameCache()

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove image: %v", err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("expected error for a deleted file")
	}
	if cache.Len() != 0 {
		t.Errorf("Len: got %d, want 0", cache.Len())
	}
}

func TestFrameCache_Load_NonExistent(t *testing.T) {
	cache := NewFrameCache()
	if _, err := cache.Load("/nonexistent/image.png"); err == nil {
		t.Error("expected error for non-existent file")
	}
	if cache.Len() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestFrameCache_ConcurrentAccess(t *testing.T) {
	path := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})
	cache := NewFrameCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}
