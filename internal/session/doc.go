// Package session drives the live detection loop and the capture step.
//
// A Session replaces the process-wide state of a camera preview: the last
// observed frame, the retained region of interest and the streaming flag
// all live behind one mutex. Live frames arrive through a Scheduler, one
// cycle at a time; capture copies the frame and region and hands them to a
// worker goroutine so no pixel buffer is shared while it runs.
package session
