package session

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/extent-mcp/internal/imaging"
	"github.com/ironsheep/extent-mcp/internal/segment"
)

var (
	objectColor     = color.NRGBA{220, 40, 30, 255}
	backgroundColor = color.NRGBA{30, 60, 200, 255}
)

// objectImage draws a red disk on a blue background.
func objectImage(width, height, cx, cy, radius int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, objectColor)
			} else {
				img.SetNRGBA(x, y, backgroundColor)
			}
		}
	}
	return img
}

// blankImage is background everywhere except the center pixel, so the
// detector finds no region.
func blankImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, backgroundColor)
		}
	}
	img.SetNRGBA(width/2, height/2, objectColor)
	return img
}

func loaded(path string, img *image.NRGBA) *imaging.Loaded {
	rgb, hsv := imaging.ToFrames(img)
	b := img.Bounds()
	return &imaging.Loaded{
		Path:  path,
		Image: img,
		Color: rgb,
		HSV:   hsv,
		Info:  imaging.FrameInfo{Width: b.Dx(), Height: b.Dy(), Format: "png"},
	}
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	d, err := segment.NewDetector(segment.DefaultConfig(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return New(d, zaptest.NewLogger(t).Sugar())
}

// manualScheduler fires only when the test calls tick.
type manualScheduler struct {
	mu     sync.Mutex
	fn     func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
}

func (m *manualScheduler) OnFrameReady(fn func(ctx context.Context)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return func() { m.cancel() }
}

func (m *manualScheduler) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() == nil {
		m.fn(m.ctx)
	}
}

// sliceSource serves frames from memory.
type sliceSource struct {
	mu     sync.Mutex
	frames []*imaging.Loaded
}

func (s *sliceSource) Next(ctx context.Context) (*imaging.Loaded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
