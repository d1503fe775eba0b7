package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/extent-mcp/internal/imaging"
	"github.com/ironsheep/extent-mcp/internal/segment"
	"github.com/ironsheep/extent-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "region_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// StatusResult is returned in place of a tool's normal result when a
// pipeline stage ends the cycle with one of its typed outcomes (no region,
// empty mask, invalid input). These are not protocol errors.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Debugw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Frames
	case "frame_load":
		return s.handleFrameLoad(args)
	case "frame_sample_color":
		return s.handleFrameSampleColor(args)

	// Pipeline
	case "region_detect":
		return s.handleRegionDetect(args)
	case "region_capture":
		return s.handleRegionCapture(args)
	case "mask_measure":
		return s.handleMaskMeasure(args)

	// Session
	case "session_start":
		return s.handleSessionStart(args)
	case "session_stop":
		return s.handleSessionStop(args)
	case "session_status":
		return s.session.Status(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// pipelineResult turns a recoverable pipeline error into a StatusResult.
// Other errors are passed through.
func pipelineResult(err error) (interface{}, error) {
	if segment.Recoverable(err) {
		return &StatusResult{Status: segment.Kind(err), Message: err.Error()}, nil
	}
	return nil, err
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Frame Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

type frameLoadResult struct {
	imaging.FrameInfo
	Center *imaging.ColorResult `json:"center"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	l, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	center, err := imaging.SampleCenter(l.Image)
	if err != nil {
		return nil, err
	}
	return &frameLoadResult{FrameInfo: l.Info, Center: center}, nil
}

type frameSampleColorArgs struct {
	Path string `json:"path"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

type sampleResult struct {
	X int `json:"x"`
	Y int `json:"y"`
	*imaging.ColorResult
}

func (s *Server) handleFrameSampleColor(args json.RawMessage) (interface{}, error) {
	var a frameSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	l, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	x, y := l.Info.Width/2, l.Info.Height/2
	if a.X != nil {
		x = *a.X
	}
	if a.Y != nil {
		y = *a.Y
	}
	c, err := imaging.SampleColor(l.Image, x, y)
	if err != nil {
		return nil, err
	}
	return &sampleResult{X: x, Y: y, ColorResult: c}, nil
}

// === Pipeline Handlers ===

type regionDetectArgs struct {
	Path           string `json:"path"`
	IncludeOverlay bool   `json:"include_overlay"`
}

type regionDetectResult struct {
	Status        string                `json:"status"`
	Sample        segment.ColorSample   `json:"sample"`
	Lower         [3]uint8              `json:"lower"`
	Upper         [3]uint8              `json:"upper"`
	Area          float64               `json:"area"`
	ContourPoints int                   `json:"contour_points"`
	Hull          [][2]int              `json:"hull"`
	ExpandedHull  [][2]int              `json:"expanded_hull"`
	RegionPixels  int                   `json:"region_pixels"`
	Overlay       *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleRegionDetect(args json.RawMessage) (interface{}, error) {
	var a regionDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	l, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region, err := s.session.Observe(context.Background(), l)
	if err != nil {
		return pipelineResult(err)
	}

	res := &regionDetectResult{
		Status:        segment.StatusOK,
		Sample:        region.Sample,
		Lower:         region.Window.Lower,
		Upper:         region.Window.Upper,
		Area:          region.Area,
		ContourPoints: len(region.Contour),
		Hull:          pointPairs(region.Hull),
		ExpandedHull:  pointPairs(region.Expanded),
		RegionPixels:  segment.CountSet(region.Mask),
	}
	if a.IncludeOverlay {
		overlay := imaging.DrawHull(l.Image, region.Expanded, imaging.HullColor, imaging.OverlayThickness)
		if res.Overlay, err = imaging.EncodePNG(overlay); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type regionCaptureArgs struct {
	Iterations    int  `json:"iterations"`
	IncludeImages bool `json:"include_images"`
}

type regionCaptureResult struct {
	Status     string                `json:"status"`
	Top        int                   `json:"top"`
	Bottom     int                   `json:"bottom"`
	Height     int                   `json:"height"`
	Iterations int                   `json:"iterations"`
	DurationMs int64                 `json:"duration_ms"`
	Overlay    *imaging.EncodedImage `json:"overlay,omitempty"`
	Mask       *imaging.EncodedImage `json:"mask,omitempty"`
	Cutout     *imaging.EncodedImage `json:"cutout,omitempty"`
}

func (s *Server) handleRegionCapture(args json.RawMessage) (interface{}, error) {
	var a regionCaptureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	res, err := s.session.Capture(context.Background(), a.Iterations)
	if err != nil {
		return pipelineResult(err)
	}

	out := &regionCaptureResult{
		Status:     segment.StatusOK,
		Top:        res.Extent.Top,
		Bottom:     res.Extent.Bottom,
		Height:     res.Extent.Height,
		Iterations: res.Iterations,
		DurationMs: res.Duration.Milliseconds(),
	}
	if a.IncludeImages {
		images := []struct {
			dst **imaging.EncodedImage
			img image.Image
		}{
			{&out.Overlay, res.Overlay},
			{&out.Mask, imaging.MaskToImage(res.Mask)},
			{&out.Cutout, res.Cutout},
		}
		for _, im := range images {
			if *im.dst, err = imaging.EncodePNG(im.img); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type maskMeasureArgs struct {
	Path          string `json:"path"`
	ReferencePath string `json:"reference_path"`
}

type maskMeasureResult struct {
	Status  string               `json:"status"`
	Top     int                  `json:"top"`
	Bottom  int                  `json:"bottom"`
	Height  int                  `json:"height"`
	Overlap *imaging.MaskOverlap `json:"overlap,omitempty"`
}

func (s *Server) handleMaskMeasure(args json.RawMessage) (interface{}, error) {
	var a maskMeasureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	l, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	mask := imaging.MaskFromImage(l.Image)

	extent, err := s.session.Detector().Measure(mask)
	if err != nil {
		return pipelineResult(err)
	}
	res := &maskMeasureResult{
		Status: segment.StatusOK,
		Top:    extent.Top,
		Bottom: extent.Bottom,
		Height: extent.Height,
	}

	if a.ReferencePath != "" {
		ref, err := s.cache.Load(a.ReferencePath)
		if err != nil {
			return nil, err
		}
		if res.Overlap, err = imaging.CompareMasks(mask, imaging.MaskFromImage(ref.Image)); err != nil {
			return pipelineResult(err)
		}
	}
	return res, nil
}

// === Session Handlers ===

type sessionStartArgs struct {
	Dir        string `json:"dir"`
	IntervalMs int    `json:"interval_ms"`
	Loop       bool   `json:"loop"`
}

func (s *Server) handleSessionStart(args json.RawMessage) (interface{}, error) {
	var a sessionStartArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.IntervalMs < 0 {
		return nil, fmt.Errorf("interval_ms must be non-negative, got %d", a.IntervalMs)
	}

	src, err := session.NewDirSource(a.Dir, a.Loop, s.cache)
	if err != nil {
		return nil, err
	}
	sched := session.NewTickerScheduler(time.Duration(a.IntervalMs) * time.Millisecond)
	if err := s.session.Start(sched, src); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"started":     true,
		"frames":      src.Len(),
		"interval_ms": sched.Interval.Milliseconds(),
		"loop":        a.Loop,
	}, nil
}

func (s *Server) handleSessionStop(args json.RawMessage) (interface{}, error) {
	stopped := s.session.Stop()
	return map[string]interface{}{
		"stopped": stopped,
		"status":  s.session.Status(),
	}, nil
}

func pointPairs(pts []image.Point) [][2]int {
	out := make([][2]int, len(pts))
	for i, p := range pts {
		out[i] = [2]int{p.X, p.Y}
	}
	return out
}
