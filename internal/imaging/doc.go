// Package imaging adapts image files and image.Image values to the frame
// buffers the segment package works on, and renders its results.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// # Color Representation
//
// Frames come in pairs. The color frame carries R, G, B. The alternate
// frame carries half-turn HSV: hue in degrees divided by two (0-179),
// saturation and value scaled to 0-255.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Cached frames are shared and must
// not be modified. All drawing functions return a new image and leave their
// input untouched.
package imaging
