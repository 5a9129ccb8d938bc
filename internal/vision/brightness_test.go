package vision

import "testing"

func TestLocalizeFindsPeakPixel(t *testing.T) {
	const w, h = 8, 8
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	setPixel(frame, w, 5, 3, 255, 255, 255, 255)

	res := l.Localize(frame, 0.5, 0.5)
	if !approxEqual(res.Peak, 1.0, 1e-9) {
		t.Fatalf("expected peak 1.0, got %v", res.Peak)
	}
	if !approxEqual(res.X, 5.0/w, 1e-9) || !approxEqual(res.Y, 3.0/h, 1e-9) {
		t.Fatalf("expected peak at (%v,%v), got (%v,%v)", 5.0/w, 3.0/h, res.X, res.Y)
	}
}

// Equal-brightness ties resolve to the first pixel in row-major order.
func TestLocalizeTieBreaksRowMajor(t *testing.T) {
	const w, h = 8, 8
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	setPixel(frame, w, 5, 5, 200, 200, 200, 255)
	setPixel(frame, w, 2, 2, 200, 200, 200, 255)

	res := l.Localize(frame, 0.5, 0.5)
	if !approxEqual(res.X, 2.0/w, 1e-9) || !approxEqual(res.Y, 2.0/h, 1e-9) {
		t.Fatalf("expected first-encountered pixel (2,2), got (%v,%v)", res.X*w, res.Y*h)
	}
}

// Pixels outside the clipped 32x32 window are never considered.
func TestLocalizeWindowExcludesDistantPixels(t *testing.T) {
	const w, h = 100, 100
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	// Bright pixel far outside the window around (10,10).
	setPixel(frame, w, 50, 50, 255, 255, 255, 255)
	// Dimmer pixel inside the window.
	setPixel(frame, w, 12, 12, 128, 128, 128, 255)

	res := l.Localize(frame, 0.1, 0.1)
	if !approxEqual(res.X, 12.0/w, 1e-9) || !approxEqual(res.Y, 12.0/h, 1e-9) {
		t.Fatalf("expected in-window peak at (12,12), got (%v,%v)", res.X*w, res.Y*h)
	}
	if !approxEqual(res.Peak, 128.0/255.0, 1e-9) {
		t.Fatalf("expected peak %v, got %v", 128.0/255.0, res.Peak)
	}
}

// The window clamps at frame edges instead of reading out of bounds.
func TestLocalizeClampsAtEdges(t *testing.T) {
	const w, h = 20, 20
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	setPixel(frame, w, 0, 0, 255, 255, 255, 255)

	// Centroid at the top-left corner: window would extend to -16.
	res := l.Localize(frame, 0.0, 0.0)
	if !approxEqual(res.Peak, 1.0, 1e-9) || res.X != 0 || res.Y != 0 {
		t.Fatalf("expected corner peak, got %+v", res)
	}

	// Centroid at the bottom-right corner: window would extend past w/h.
	setPixel(frame, w, w-1, h-1, 255, 255, 255, 255)
	res = l.Localize(frame, 0.999, 0.999)
	if !approxEqual(res.Peak, 1.0, 1e-9) {
		t.Fatalf("expected peak at clamped window, got %+v", res)
	}
}

// Raising one pixel's brightness inside the window never decreases the peak.
func TestLocalizeRaisingPixelNeverLowersPeak(t *testing.T) {
	const w, h = 40, 40
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	setPixel(frame, w, 20, 20, 100, 100, 100, 255)

	before := l.Localize(frame, 0.5, 0.5)
	for v := byte(110); ; v += 40 {
		setPixel(frame, w, 18, 22, v, v, v, 255)
		after := l.Localize(frame, 0.5, 0.5)
		if after.Peak < before.Peak {
			t.Fatalf("peak decreased from %v to %v after raising a pixel", before.Peak, after.Peak)
		}
		before = after
		if v >= 230 {
			break
		}
	}
}

// ITU-R 601 luma weights: a pure-green pixel outranks a pure-blue one.
func TestLocalizeUsesPerceptualWeights(t *testing.T) {
	const w, h = 8, 8
	l := NewBrightnessLocalizer(w, h)
	frame := makeFrame(w, h)
	setPixel(frame, w, 1, 1, 0, 0, 255, 255) // luma 0.114
	setPixel(frame, w, 6, 6, 0, 255, 0, 255) // luma 0.587

	res := l.Localize(frame, 0.5, 0.5)
	if !approxEqual(res.Peak, lumaG, 1e-9) {
		t.Fatalf("expected green luma %v, got %v", lumaG, res.Peak)
	}
	if !approxEqual(res.X, 6.0/w, 1e-9) {
		t.Fatalf("expected green pixel to win, peak at x=%v", res.X*w)
	}
}
