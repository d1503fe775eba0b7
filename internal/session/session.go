package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/extent-mcp/internal/imaging"
	"github.com/ironsheep/extent-mcp/internal/segment"
)

// ErrStreaming is returned by Start when the live loop is already running.
var ErrStreaming = errors.New("session already streaming")

// Stats counts what the session has done since it was created.
type Stats struct {
	Frames     int    `json:"frames"`
	Detections int    `json:"detections"`
	Misses     int    `json:"misses"`
	Captures   int    `json:"captures"`
	LastStatus string `json:"last_status"`
}

// Status is a point-in-time view of a session.
type Status struct {
	Streaming bool               `json:"streaming"`
	HasRegion bool               `json:"has_region"`
	Frame     *imaging.FrameInfo `json:"frame,omitempty"`
	FramePath string             `json:"frame_path,omitempty"`
	Stats     Stats              `json:"stats"`
}

// CaptureResult holds the output of one capture.
type CaptureResult struct {
	Mask       *image.Gray    // Binary foreground mask, frame sized
	Extent     segment.Extent // Vertical extent of Mask
	Overlay    *image.NRGBA   // Frame with the measurement drawn on
	Cutout     *image.NRGBA   // Foreground cropped to its bounding box
	Iterations int
	Duration   time.Duration
}

// Session owns the state shared between the live loop and capture.
type Session struct {
	detector *segment.Detector
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	frame     *imaging.Loaded
	region    *segment.Region
	streaming bool
	cancel    func()
	gen       int
	stats     Stats
}

// New creates an idle session.
func New(detector *segment.Detector, logger *zap.SugaredLogger) *Session {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Session{detector: detector, logger: logger}
}

// Detector returns the detector the session runs.
func (s *Session) Detector() *segment.Detector { return s.detector }

// Observe runs one live detection cycle on frame.
//
// The frame becomes the session's current frame regardless of the outcome.
// On success the returned region replaces the retained one; on any error
// the previous region is kept. frame must not be modified afterwards.
func (s *Session) Observe(ctx context.Context, frame *imaging.Loaded) (*segment.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("nil frame: %w", segment.ErrInvalidInput)
	}

	region, err := s.detector.DetectRegion(frame.Color, frame.HSV)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.stats.Frames++
	s.stats.LastStatus = segment.Kind(err)
	if err != nil {
		s.stats.Misses++
		return nil, err
	}
	s.stats.Detections++
	s.region = region
	return region, nil
}

// Region returns a copy of the retained region of interest, or nil.
func (s *Session) Region() *segment.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRegion(s.region)
}

// Frame returns the most recently observed frame, or nil. It is shared and
// must be treated as read-only.
func (s *Session) Frame() *imaging.Loaded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Streaming reports whether the live loop is running.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Status returns the session's current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Streaming: s.streaming,
		HasRegion: s.region != nil,
		Stats:     s.stats,
	}
	if s.frame != nil {
		info := s.frame.Info
		st.Frame = &info
		st.FramePath = s.frame.Path
	}
	return st
}

// Start runs the live loop: on every scheduler callback the next frame of
// src is observed. The loop ends at the source's io.EOF or on Stop.
//
// Frames without a region are logged at debug level and the loop keeps
// going.
func (s *Session) Start(sched Scheduler, src Source) error {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrStreaming
	}
	s.streaming = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	cancel := sched.OnFrameReady(func(ctx context.Context) {
		s.cycle(ctx, gen, src)
	})

	s.mu.Lock()
	if s.streaming && s.gen == gen {
		s.cancel = cancel
		s.mu.Unlock()
		s.logger.Infow("streaming started")
		return nil
	}
	s.mu.Unlock()
	// Stopped before the cancel func was stored.
	cancel()
	return nil
}

func (s *Session) cycle(ctx context.Context, gen int, src Source) {
	frame, err := src.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Infow("frame source exhausted")
		// Stop waits for this callback, so it cannot run here.
		go s.stopGeneration(gen)
		return
	case err != nil:
		if ctx.Err() == nil {
			s.logger.Warnw("failed to read frame", "error", err)
		}
		return
	}

	if _, err := s.Observe(ctx, frame); err != nil {
		if segment.Recoverable(err) {
			s.logger.Debugw("frame skipped", "path", frame.Path, "status", segment.Kind(err))
		} else if ctx.Err() == nil {
			s.logger.Warnw("detection failed", "path", frame.Path, "error", err)
		}
	}
}

// Stop ends the live loop and waits for a running cycle to finish. It
// reports whether the loop was running.
func (s *Session) Stop() bool {
	s.mu.Lock()
	return s.stopLocked()
}

func (s *Session) stopGeneration(gen int) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
}

// stopLocked is called with s.mu held and releases it.
func (s *Session) stopLocked() bool {
	if !s.streaming {
		s.mu.Unlock()
		return false
	}
	cancel := s.cancel
	s.streaming = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.logger.Infow("streaming stopped")
	return true
}

// Capture segments the current frame seeded by the retained region and
// measures the result. A running live loop is stopped first.
//
// The frame and region are copied before the work is handed to a worker
// goroutine; ctx only bounds the wait. iterations of zero uses the
// configured default.
func (s *Session) Capture(ctx context.Context, iterations int) (*CaptureResult, error) {
	s.Stop()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.frame == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no frame observed: %w", segment.ErrInvalidInput)
	}
	if s.region == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no region of interest: %w", segment.ErrNoRegionFound)
	}
	color := s.frame.Color.Clone()
	roi := segment.CloneMask(s.region.Mask)
	s.mu.Unlock()

	if iterations == 0 {
		iterations = s.detector.Config().GrabCut.Iterations
	}

	type outcome struct {
		res *CaptureResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.capture(color, roi, iterations)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		err := ctx.Err()
		s.recordCapture(err)
		s.logger.Warnw("capture abandoned", "error", err)
		return nil, err
	case out = <-done:
	}

	s.recordCapture(out.err)
	if out.err != nil {
		s.logger.Warnw("capture failed", "status", segment.Kind(out.err), "error", out.err)
		return nil, out.err
	}
	s.logger.Infow("captured",
		"top", out.res.Extent.Top,
		"bottom", out.res.Extent.Bottom,
		"height", out.res.Extent.Height,
		"duration", out.res.Duration,
	)
	return out.res, nil
}

func (s *Session) recordCapture(err error) {
	s.mu.Lock()
	s.stats.Captures++
	s.stats.LastStatus = segment.Kind(err)
	s.mu.Unlock()
}

// capture runs on the worker goroutine and owns color and roi.
func (s *Session) capture(color *segment.Frame, roi *image.Gray, iterations int) (*CaptureResult, error) {
	start := time.Now()

	mask, err := s.detector.Segment(color, roi, iterations)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	extent, err := s.detector.Measure(mask)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}

	img := imaging.FrameToImage(color)
	cutout, err := imaging.Cutout(img, mask)
	if err != nil {
		return nil, fmt.Errorf("cutout: %w", err)
	}

	return &CaptureResult{
		Mask:       mask,
		Extent:     extent,
		Overlay:    imaging.DrawExtent(img, extent),
		Cutout:     cutout,
		Iterations: iterations,
		Duration:   time.Since(start),
	}, nil
}

func cloneRegion(r *segment.Region) *segment.Region {
	if r == nil {
		return nil
	}
	c := *r
	c.Contour = append(segment.Contour(nil), r.Contour...)
	c.Hull = append([]image.Point(nil), r.Hull...)
	c.Expanded = append([]image.Point(nil), r.Expanded...)
	c.Mask = segment.CloneMask(r.Mask)
	return &c
}
