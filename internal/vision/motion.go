package vision

// diffNormalization maps a summed per-channel absolute difference
// (R+G+B, each 0..255) into [0,1].
const diffNormalization = 3.0 * 255.0

// motionTilePixels is the traversal group size for the diff scan. Tiling is
// a cache-locality tactic only; the tail group is always scanned in full so
// coverage is exactly width*height regardless of divisibility.
const motionTilePixels = 4096

// MotionEstimator computes the per-pixel color difference between the
// current and previous frame and aggregates it into a motion magnitude and
// a diff-weighted centroid.
type MotionEstimator struct {
	width     int
	height    int
	threshold float64
}

// NewMotionEstimator creates an estimator for the given frame geometry.
// The threshold gates twice: per pixel to select active pixels, then on the
// aggregate magnitude to confirm the event is not borderline.
func NewMotionEstimator(width, height int, threshold float64) *MotionEstimator {
	return &MotionEstimator{width: width, height: height, threshold: threshold}
}

// Estimate compares two RGBA frames of identical geometry. Alpha is ignored.
// With zero active pixels it reports no motion, centroid (0,0), magnitude 0.
func (e *MotionEstimator) Estimate(current, previous []byte) MotionResult {
	totalPixels := e.width * e.height

	var (
		diffSum   float64
		xWeighted float64
		yWeighted float64
		active    int
	)

	for start := 0; start < totalPixels; start += motionTilePixels {
		end := start + motionTilePixels
		if end > totalPixels {
			end = totalPixels
		}
		for px := start; px < end; px++ {
			i := px * BytesPerPixel
			d := absDiff(current[i], previous[i]) +
				absDiff(current[i+1], previous[i+1]) +
				absDiff(current[i+2], previous[i+2])
			diff := float64(d) / diffNormalization
			if diff <= e.threshold {
				continue
			}
			active++
			diffSum += diff
			xWeighted += float64(px%e.width) * diff
			yWeighted += float64(px/e.width) * diff
		}
	}

	if active == 0 {
		return MotionResult{}
	}

	magnitude := diffSum / float64(active)
	return MotionResult{
		Detected:  magnitude > e.threshold,
		CentroidX: xWeighted / (diffSum * float64(e.width)),
		CentroidY: yWeighted / (diffSum * float64(e.height)),
		Magnitude: magnitude,
		Active:    active,
	}
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
