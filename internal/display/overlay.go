package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/landmark"
	"github.com/ayusman/handarm/internal/servo"
)

// Overlay styling.
const (
	LandmarkRadius = 5
	TextScale      = 1.0
	TextThickness  = 2
	LineSpacing    = 30
	TextMargin     = 10
)

var (
	landmarkColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// DrawLandmarks marks every landmark of the hand with a filled green dot.
func DrawLandmarks(frame *gocv.Mat, hand *landmark.Hand) {
	width, height := frame.Cols(), frame.Rows()
	for _, p := range hand.Points {
		x, y := p.Pixel(width, height)
		gocv.Circle(frame, image.Pt(x, y), LandmarkRadius, landmarkColor, -1)
	}
}

// AngleLabels returns one caption per servo, e.g. "Servo 1 Angle: 126".
func AngleLabels(angles servo.Angles) []string {
	labels := make([]string, len(angles))
	for i, a := range angles {
		labels[i] = fmt.Sprintf("Servo %d Angle: %d", i+1, a)
	}
	return labels
}

// DrawAngles writes the servo captions down the left edge of the frame.
func DrawAngles(frame *gocv.Mat, angles servo.Angles) {
	for i, label := range AngleLabels(angles) {
		origin := image.Pt(TextMargin, (i+1)*LineSpacing)
		gocv.PutText(frame, label, origin, gocv.FontHersheySimplex, TextScale, textColor, TextThickness)
	}
}
