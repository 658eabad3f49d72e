package servo

import (
	"math"

	"github.com/ayusman/handarm/internal/landmark"
)

// Input domains for the linear mappings. Horizontal and vertical offsets are in
// pixels; depth is in whatever scale the pose source reports.
const (
	HorizontalSpan = 250.0
	VerticalSpan   = 300.0
	DepthSpan      = 1.0
)

// Offsets is the displacement of the index fingertip from the wrist.
type Offsets struct {
	Horizontal float64 // pixels, positive to the right
	Vertical   float64 // pixels, positive downwards
	Depth      float64 // absolute depth difference
}

// MeasureOffsets computes the index-fingertip to wrist offsets for a frame of
// the given pixel size.
func MeasureOffsets(hand *landmark.Hand, width, height int) Offsets {
	wrist := hand.Points[landmark.Wrist]
	index := hand.Points[landmark.IndexTip]

	return Offsets{
		Horizontal: (index.X - wrist.X) * float64(width),
		Vertical:   (index.Y - wrist.Y) * float64(height),
		Depth:      math.Abs(index.Z - wrist.Z),
	}
}

// Map derives the four servo angles for a hand seen in a frame of the given
// pixel size. The hand must carry the full landmark set.
func Map(hand *landmark.Hand, width, height int) Angles {
	return FromOffsets(MeasureOffsets(hand, width, height), IsHandOpen(hand))
}

// FromOffsets converts measured offsets and the open state into clamped angles.
func FromOffsets(o Offsets, open bool) Angles {
	var a Angles
	a[Base] = mapLinear(o.Horizontal, -HorizontalSpan, HorizontalSpan, Limits[Base])
	a[Shoulder] = mapLinear(o.Vertical, -VerticalSpan, VerticalSpan, Limits[Shoulder])
	a[Elbow] = mapLinear(o.Depth, 0, DepthSpan, Limits[Elbow])

	gripper := 0
	if open {
		gripper = MaxGripperAngle
	}
	a[Gripper] = Clamp(gripper, Limits[Gripper].Min, Limits[Gripper].Max)

	return a
}

// IsHandOpen reports whether every fingertip is strictly above the wrist in
// image space (smaller y). A sideways or rotated hand reads as closed.
func IsHandOpen(hand *landmark.Hand) bool {
	wristY := hand.Points[landmark.Wrist].Y
	for _, tip := range landmark.Fingertips {
		if !(hand.Points[tip].Y < wristY) {
			return false
		}
	}
	return true
}

func mapLinear(x, lo, hi float64, r Range) int {
	v := Interpolate(x, lo, hi, float64(r.Min), float64(r.Max))
	return Clamp(int(v), r.Min, r.Max)
}

// Interpolate maps x linearly from [x0,x1] onto [y0,y1], saturating at the
// endpoints for x outside the domain. NaN maps to y0.
func Interpolate(x, x0, x1, y0, y1 float64) float64 {
	switch {
	case math.IsNaN(x), x <= x0:
		return y0
	case x >= x1:
		return y1
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
