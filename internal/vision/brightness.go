package vision

// WindowSize is the side length in pixels of the square analysis window
// scanned around the motion centroid.
const WindowSize = 32

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// BrightnessLocalizer scans a fixed-size window around a centroid for the
// pixel with maximum perceptual brightness.
type BrightnessLocalizer struct {
	width  int
	height int
}

// NewBrightnessLocalizer creates a localizer for the given frame geometry.
func NewBrightnessLocalizer(width, height int) *BrightnessLocalizer {
	return &BrightnessLocalizer{width: width, height: height}
}

// Localize scans a WindowSize×WindowSize window centered at the normalized
// centroid, clipped to frame bounds. Ties break to the first pixel in
// row-major scan order. An empty clipped window yields brightness 0 at (0,0).
func (l *BrightnessLocalizer) Localize(frame []byte, centroidX, centroidY float64) BrightnessResult {
	cx := int(centroidX * float64(l.width))
	cy := int(centroidY * float64(l.height))

	const half = WindowSize / 2
	x0, y0 := cx-half, cy-half
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	x1, y1 := cx+half, cy+half
	if x1 > l.width {
		x1 = l.width
	}
	if y1 > l.height {
		y1 = l.height
	}

	peak := -1.0
	peakX, peakY := 0, 0
	for y := y0; y < y1; y++ {
		rowBase := y * l.width
		for x := x0; x < x1; x++ {
			i := (rowBase + x) * BytesPerPixel
			luma := (lumaR*float64(frame[i]) +
				lumaG*float64(frame[i+1]) +
				lumaB*float64(frame[i+2])) / 255.0
			if luma > peak {
				peak = luma
				peakX, peakY = x, y
			}
		}
	}

	if peak < 0 {
		return BrightnessResult{}
	}
	return BrightnessResult{
		Peak: peak,
		X:    float64(peakX) / float64(l.width),
		Y:    float64(peakY) / float64(l.height),
	}
}
