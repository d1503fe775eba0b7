// Package segment extracts a single foreground object from a frame seeded
// only by the color at the frame's center, and measures its vertical extent.
//
// # Live detection
//
// Each live frame runs four stages:
//
//   - ColorRangeMask: an adaptive per-channel window around the center
//     sample of the alternate (HSV) frame
//   - RefineMask: median filter followed by morphological opening
//   - ExtractLargest: 8-connected boundary tracing, largest polygon area wins
//   - HullMask: convex hull, scaled about its vertex centroid and filled
//
// The filled hull is the region of interest.
//
// # Capture
//
// On capture, Segment refines the region of interest against the color
// frame with an iterated graph cut over Gaussian mixture color models, and
// Measure reports the topmost and bottommost set rows of the result.
//
// # Errors
//
// Every stage reports one of ErrInvalidInput, ErrNoRegionFound or
// ErrEmptyMask, wrapped with context. Kind maps them to status strings.
package segment
