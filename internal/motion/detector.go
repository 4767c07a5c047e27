// Package motion implements binary motion classification between consecutive
// grayscale frames.
package motion

import "image"

// Result reports one comparison outcome.
type Result struct {
	Motion     bool
	ChangedPct float64
}

// Detector compares each observed frame against the previously observed one.
// It retains a single previous-frame buffer, overwritten on every call, and
// is not safe for concurrent use; the capture loop is its only caller.
type Detector struct {
	pixelThreshold int
	percentMotion  float64
	prev           *image.Gray
}

// NewDetector builds a detector. pixelThreshold is the per-pixel intensity
// delta that counts a pixel as changed; percentMotion is the percentage of
// changed pixels above which motion is declared.
func NewDetector(pixelThreshold int, percentMotion float64) *Detector {
	return &Detector{
		pixelThreshold: pixelThreshold,
		percentMotion:  percentMotion,
	}
}

// Observe compares frame to the previous observation and retains frame as
// the new baseline. The first observation after construction seeds the
// baseline and never reports motion. A resolution change also reseeds, since
// pixel positions are no longer comparable.
func (d *Detector) Observe(frame *image.Gray) Result {
	if frame == nil {
		return Result{}
	}

	prev := d.prev
	d.prev = frame

	if prev == nil || !prev.Rect.Size().Eq(frame.Rect.Size()) {
		return Result{}
	}

	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	total := width * height
	if total == 0 {
		return Result{}
	}

	changed := 0
	for y := 0; y < height; y++ {
		prevRow := prev.Pix[y*prev.Stride : y*prev.Stride+width]
		curRow := frame.Pix[y*frame.Stride : y*frame.Stride+width]
		for x := 0; x < width; x++ {
			diff := int(curRow[x]) - int(prevRow[x])
			if diff < 0 {
				diff = -diff
			}
			if diff > d.pixelThreshold {
				changed++
			}
		}
	}

	pct := float64(changed) / float64(total) * 100
	return Result{
		Motion:     pct > d.percentMotion,
		ChangedPct: pct,
	}
}

// Reset drops the retained baseline; the next observation seeds again.
func (d *Detector) Reset() {
	d.prev = nil
}
