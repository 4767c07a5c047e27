package motion

import (
	"image"
	"testing"
)

func grayFrame(w, h int, fill uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

// alter raises the first n pixels well past any per-pixel threshold.
func alter(img *image.Gray, n int) *image.Gray {
	out := image.NewGray(img.Rect)
	copy(out.Pix, img.Pix)
	for i := 0; i < n && i < len(out.Pix); i++ {
		out.Pix[i] += 200
	}
	return out
}

func TestFirstObservationSeedsOnly(t *testing.T) {
	d := NewDetector(30, 3.0)
	res := d.Observe(grayFrame(10, 10, 255))
	if res.Motion {
		t.Fatal("first frame must never report motion")
	}
	if res.ChangedPct != 0 {
		t.Fatalf("first frame changed pct = %v", res.ChangedPct)
	}
}

func TestIdenticalFramesReportNoMotion(t *testing.T) {
	d := NewDetector(30, 3.0)
	d.Observe(grayFrame(20, 20, 128))
	res := d.Observe(grayFrame(20, 20, 128))
	if res.Motion || res.ChangedPct != 0 {
		t.Fatalf("identical frames reported motion: %+v", res)
	}
}

func TestMotionThresholdCrossing(t *testing.T) {
	base := grayFrame(10, 10, 50)

	// 3 of 100 pixels changed: exactly at 3.0%, not above it.
	d := NewDetector(30, 3.0)
	d.Observe(base)
	res := d.Observe(alter(base, 3))
	if res.Motion {
		t.Fatalf("3%% changed should not cross a >3.0%% threshold: %+v", res)
	}

	// 4 of 100 pixels changed crosses the threshold.
	d = NewDetector(30, 3.0)
	d.Observe(base)
	res = d.Observe(alter(base, 4))
	if !res.Motion {
		t.Fatalf("4%% changed should cross a >3.0%% threshold: %+v", res)
	}
	if res.ChangedPct != 4.0 {
		t.Fatalf("changed pct = %v, want 4.0", res.ChangedPct)
	}
}

func TestChangedFractionIsMonotonic(t *testing.T) {
	base := grayFrame(10, 10, 50)
	prevPct := -1.0
	for _, n := range []int{0, 1, 2, 5, 10, 50, 100} {
		d := NewDetector(30, 3.0)
		d.Observe(base)
		res := d.Observe(alter(base, n))
		if res.ChangedPct < prevPct {
			t.Fatalf("changed pct decreased: %v after %v", res.ChangedPct, prevPct)
		}
		prevPct = res.ChangedPct
	}
}

func TestSmallIntensityShiftIgnored(t *testing.T) {
	d := NewDetector(30, 3.0)
	d.Observe(grayFrame(10, 10, 100))
	// Every pixel shifts by less than the per-pixel threshold.
	res := d.Observe(grayFrame(10, 10, 120))
	if res.Motion {
		t.Fatalf("sub-threshold intensity shift reported motion: %+v", res)
	}
}

func TestResolutionChangeReseeds(t *testing.T) {
	d := NewDetector(30, 3.0)
	d.Observe(grayFrame(10, 10, 0))
	res := d.Observe(grayFrame(20, 20, 255))
	if res.Motion {
		t.Fatal("resolution change must reseed, not report motion")
	}
	// Next same-size frame compares against the new baseline.
	res = d.Observe(grayFrame(20, 20, 0))
	if !res.Motion {
		t.Fatal("expected motion against reseeded baseline")
	}
}

func TestReset(t *testing.T) {
	d := NewDetector(30, 3.0)
	d.Observe(grayFrame(10, 10, 0))
	d.Reset()
	res := d.Observe(grayFrame(10, 10, 255))
	if res.Motion {
		t.Fatal("observation after Reset must seed only")
	}
}
