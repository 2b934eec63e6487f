// Package engine runs a processing unit over a raster, window by window.
//
// Run validates its configuration, creates the output raster with its final
// profile, plans every work item up front and fans them out to a pool of
// worker goroutines:
//
//	feeder ──items──▶ worker 1..N ──tiles──▶ writer ──▶ output raster
//
// Each worker owns its own read handle on the source. For every item it reads
// the clamped read window, pads it to the full tile with the configured
// PadMode, casts it to the processing type, runs the unit and crops the
// overlap off the result. A single writer goroutine owns the output raster
// and writes tiles in whatever order they complete: write windows never
// intersect, so the output does not depend on scheduling or worker count.
//
// The first failure cancels the whole batch. The output raster is then
// partially written and should be discarded by the caller.
//
// Overlap pixels are always trimmed: each output pixel takes its value from
// the one window whose write region contains it. There is no blending
// across window seams.
package engine
