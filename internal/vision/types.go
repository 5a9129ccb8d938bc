package vision

//
// Frames & detections
//

// BytesPerPixel is the RGBA8 pixel stride: one byte each for R, G, B, A.
const BytesPerPixel = 4

// ProcessorConfig holds the immutable per-stream configuration.
// Geometry is fixed at construction; thresholds default to the values
// below but may be overridden with options.
type ProcessorConfig struct {
	Width  int // frame width in pixels (must be positive)
	Height int // frame height in pixels (must be positive)

	// BrightnessThreshold is the minimum peak luma (0..1) required for a
	// candidate window to produce a detection.
	BrightnessThreshold float64

	// MotionThreshold is used twice: per-pixel to select active pixels,
	// and again on the aggregate magnitude to confirm the event.
	MotionThreshold float64
}

// Default thresholds, matching the calibrated venue deployment values.
const (
	DefaultBrightnessThreshold = 0.15
	DefaultMotionThreshold     = 0.10
)

// FrameSize returns the expected byte length of one frame.
func (c ProcessorConfig) FrameSize() int {
	return c.Width * c.Height * BytesPerPixel
}

// Detection is one flash event. Absence of a Detection (nil) is the
// "no detection" signal; a Detection is never constructed otherwise.
type Detection struct {
	// X, Y are the peak position normalized to [0,1] per axis.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Confidence is (peak brightness + motion magnitude) / 2. Both inputs
	// are nominally in [0,1] but the value is intentionally not clamped.
	Confidence float64 `json:"confidence"`

	// Magnitude is the mean normalized diff among active motion pixels.
	Magnitude float64 `json:"magnitude"`

	// PeakBrightness is the maximum perceptual luma in the analysis window.
	PeakBrightness float64 `json:"peak_brightness"`

	// FrameSeq is the processor-local sequence number of the frame that
	// produced this detection (1-based, counts every processed frame).
	FrameSeq uint64 `json:"frame_seq"`
}

//
// Stage results (internal hand-off between pipeline stages)
//

// MotionResult is the output of the motion estimation stage.
type MotionResult struct {
	Detected  bool    // aggregate magnitude cleared the motion threshold
	CentroidX float64 // diff-weighted centroid, normalized [0,1]
	CentroidY float64
	Magnitude float64 // mean diff among active pixels
	Active    int     // number of active pixels
}

// BrightnessResult is the output of the brightness localization stage.
type BrightnessResult struct {
	Peak float64 // maximum luma found, 0..1
	X    float64 // peak position, normalized [0,1]
	Y    float64
}
