// Package server implements the MCP (Model Context Protocol) server for
// object extent measurement.
//
// The server exposes the detection and capture pipeline as JSON-RPC 2.0
// tools. It holds one session: frames observed by region_detect or by the
// live loop update the retained region of interest, and region_capture
// segments the current frame inside it and measures the object.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frames:
//   - frame_load: Load a frame and report its size and center color
//   - frame_sample_color: Get the color at a pixel
//
// Pipeline:
//   - region_detect: One live cycle, retaining the region of interest
//   - region_capture: Segment and measure the current frame
//   - mask_measure: Measure a mask image, optionally against a reference
//
// Session:
//   - session_start: Replay a directory of frames through the live loop
//   - session_stop: Stop the live loop
//   - session_status: Report session state and counters
//
// # Error Handling
//
// Protocol and argument errors are returned as JSON-RPC error responses
// with code -32601, -32602 or -32000. When a pipeline stage finds no
// region, an empty mask or invalid input, the tool still succeeds and its
// result carries "status" and "message" instead.
//
// # Usage
//
//	srv, err := server.New(cfg, version, logger)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(os.Stdin, os.Stdout)
package server
