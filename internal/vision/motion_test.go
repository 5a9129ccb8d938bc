package vision

import (
	"math"
	"testing"
)

// makeFrame returns an all-zero RGBA frame.
func makeFrame(width, height int) []byte {
	return make([]byte, width*height*BytesPerPixel)
}

// setPixel writes one RGBA pixel.
func setPixel(frame []byte, width, x, y int, r, g, b, a byte) {
	i := (y*width + x) * BytesPerPixel
	frame[i] = r
	frame[i+1] = g
	frame[i+2] = b
	frame[i+3] = a
}

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestEstimateIdenticalFramesNoMotion(t *testing.T) {
	e := NewMotionEstimator(8, 8, DefaultMotionThreshold)
	frame := makeFrame(8, 8)
	setPixel(frame, 8, 3, 3, 200, 100, 50, 255)

	res := e.Estimate(frame, frame)
	if res.Detected || res.Active != 0 || res.Magnitude != 0 {
		t.Fatalf("identical frames must yield zero motion, got %+v", res)
	}
	if res.CentroidX != 0 || res.CentroidY != 0 {
		t.Fatalf("expected centroid (0,0) with no active pixels, got (%v,%v)", res.CentroidX, res.CentroidY)
	}
}

// With exactly one active pixel the centroid is that pixel's own normalized
// coordinate.
func TestEstimateSingleActivePixelCentroid(t *testing.T) {
	const w, h = 4, 4
	e := NewMotionEstimator(w, h, 0.1)
	prev := makeFrame(w, h)
	cur := makeFrame(w, h)
	setPixel(cur, w, 2, 1, 255, 255, 255, 255)

	res := e.Estimate(cur, prev)
	if !res.Detected {
		t.Fatalf("expected motion detected, got %+v", res)
	}
	if res.Active != 1 {
		t.Fatalf("expected 1 active pixel, got %d", res.Active)
	}
	if !approxEqual(res.Magnitude, 1.0, 1e-9) {
		t.Fatalf("expected magnitude 1.0, got %v", res.Magnitude)
	}
	if !approxEqual(res.CentroidX, 2.0/w, 1e-9) || !approxEqual(res.CentroidY, 1.0/h, 1e-9) {
		t.Fatalf("expected centroid (%v,%v), got (%v,%v)", 2.0/w, 1.0/h, res.CentroidX, res.CentroidY)
	}
}

// Magnitude is the mean diff among active pixels only.
func TestEstimateMagnitudeIsMeanOfActive(t *testing.T) {
	const w, h = 8, 8
	e := NewMotionEstimator(w, h, 0.1)
	prev := makeFrame(w, h)
	cur := makeFrame(w, h)
	// diff 1.0: channel sum 765
	setPixel(cur, w, 1, 1, 255, 255, 255, 0)
	// diff 0.6: channel sum 459
	setPixel(cur, w, 5, 5, 255, 204, 0, 0)

	res := e.Estimate(cur, prev)
	if res.Active != 2 {
		t.Fatalf("expected 2 active pixels, got %d", res.Active)
	}
	if !approxEqual(res.Magnitude, 0.8, 1e-9) {
		t.Fatalf("expected magnitude 0.8, got %v", res.Magnitude)
	}
}

// Pixels below the per-pixel threshold never contribute to the aggregate.
func TestEstimateSubThresholdPixelsIgnored(t *testing.T) {
	const w, h = 8, 8
	e := NewMotionEstimator(w, h, 0.1)
	prev := makeFrame(w, h)
	cur := makeFrame(w, h)
	// channel sum 38 -> diff ~0.0497, under the 0.1 gate
	setPixel(cur, w, 2, 2, 38, 0, 0, 0)

	res := e.Estimate(cur, prev)
	if res.Detected || res.Active != 0 {
		t.Fatalf("sub-threshold pixel must not activate, got %+v", res)
	}
}

// The tiled traversal must cover the tail fragment when the pixel count is
// not a multiple of the tile size.
func TestEstimateCoversTailPixels(t *testing.T) {
	const w, h = 70, 60 // 4200 pixels, one full tile of 4096 plus a 104-pixel tail
	if w*h <= motionTilePixels {
		t.Fatalf("test geometry must exceed one tile")
	}
	e := NewMotionEstimator(w, h, 0.1)
	prev := makeFrame(w, h)
	cur := makeFrame(w, h)
	setPixel(cur, w, w-1, h-1, 255, 255, 255, 255)

	res := e.Estimate(cur, prev)
	if !res.Detected || res.Active != 1 {
		t.Fatalf("expected the tail pixel to be scanned, got %+v", res)
	}
	if !approxEqual(res.CentroidX, float64(w-1)/w, 1e-9) || !approxEqual(res.CentroidY, float64(h-1)/h, 1e-9) {
		t.Fatalf("expected centroid at tail pixel, got (%v,%v)", res.CentroidX, res.CentroidY)
	}
}

// Alpha differences alone never register as motion.
func TestEstimateIgnoresAlphaChannel(t *testing.T) {
	const w, h = 4, 4
	e := NewMotionEstimator(w, h, 0.1)
	prev := makeFrame(w, h)
	cur := makeFrame(w, h)
	setPixel(cur, w, 0, 0, 0, 0, 0, 255)

	res := e.Estimate(cur, prev)
	if res.Active != 0 {
		t.Fatalf("alpha-only change must not activate, got %+v", res)
	}
}
