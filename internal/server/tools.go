package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "frame_load",
			Description: "Load an image file as a frame and return its dimensions, format and the color at its center, which is the color region detection seeds from.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_sample_color",
			Description: "Get the color at a pixel as hex, RGB and half-turn HSV (H 0-179, S and V 0-255). Defaults to the frame center.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based). Defaults to width/2",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based). Defaults to height/2",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pipeline
		{
			Name:        "region_detect",
			Description: "Run one live detection cycle on a frame: mask the colors near the center sample, denoise, take the largest contour and expand its convex hull into a region of interest. The region is retained for region_capture. A frame with no region keeps the previous one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame image"),
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the frame with the expanded hull outlined as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "region_capture",
			Description: "Segment the current frame inside the retained region of interest and measure the object's vertical extent in pixels. Stops a running session first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Segmentation iterations. Defaults to the configured value (10)",
					},
					"include_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the annotated frame, the mask and the cutout as base64 PNG. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "mask_measure",
			Description: "Measure the top row, bottom row and height of a binary mask image. Pixels with red channel above 128 are set. Optionally compare against a reference mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty("Absolute path to the mask image"),
					"reference_path": pathProperty("Optional reference mask of the same size to compute overlap against"),
				},
				"required": []string{"path"},
			},
		},

		// Session
		{
			Name:        "session_start",
			Description: "Start the live loop over the image files of a directory, in name order, one detection cycle per tick.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": pathProperty("Absolute path to a directory of frames"),
					"interval_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Milliseconds between frames. Default 100",
						"default":     100,
					},
					"loop": map[string]interface{}{
						"type":        "boolean",
						"description": "Restart from the first frame at the end. Default false",
						"default":     false,
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "session_stop",
			Description: "Stop the live loop. The retained region of interest is kept.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "session_status",
			Description: "Report whether the live loop is running, the current frame, whether a region is retained and cycle counters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
