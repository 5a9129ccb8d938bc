// Package vision implements the per-frame flash detection pipeline.
//
// The pipeline ingests successive raw RGBA frames and detects short,
// spatially-localized bright events correlated with motion. It is a
// two-stage heuristic, not a general object detector: a motion gate
// (per-pixel frame differencing aggregated into a magnitude and
// diff-weighted centroid) followed by a brightness peak search in a
// fixed window around the motion site.
//
// A FrameProcessor is constructed once per stream with fixed geometry and
// called once per frame, strictly sequentially. Steady-state processing is
// allocation-free: frames live in a small bounded buffer pool owned by the
// processor.
package vision
