package creditreport

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Band colors used across the report view.
const (
	ColorExcellent = "#10b981"
	ColorGood      = "#3b82f6"
	ColorFair      = "#f59e0b"
	ColorPoor      = "#ef4444"
)

// Band is a score classification with its display color.
type Band struct {
	Label string
	Color string
}

// ScoreBand classifies a 0-100 score. Boundaries are inclusive on the
// lower edge: 80 is excellent, 60 is good, 40 is fair.
func ScoreBand(score float64) Band {
	switch {
	case score >= 80:
		return Band{Label: "Excellent", Color: ColorExcellent}
	case score >= 60:
		return Band{Label: "Good", Color: ColorGood}
	case score >= 40:
		return Band{Label: "Fair", Color: ColorFair}
	default:
		return Band{Label: "Poor", Color: ColorPoor}
	}
}

// PaymentHistory returns the payment-history row derived from the default
// flag alone. The 85%/100% figures are fixed display values of the report,
// not computed metrics.
func PaymentHistory(defaultHistory bool) (value, note, color string) {
	if defaultHistory {
		return "85%", "Late payment", ColorPoor
	}
	return "100%", "Very good", ColorExcellent
}

// CardUse classifies credit card utilization. Strictly below 30 is healthy;
// 30.0 itself already counts as high.
func CardUse(utilization float64) (note, color string) {
	if utilization < 30 {
		return "Very good", ColorExcellent
	}
	return "High", ColorFair
}

// Accounts classifies the number of existing loan accounts. Three loans are
// still a good mix; strictly more than three is too many.
func Accounts(existingLoans int) (note, color string) {
	if existingLoans > 3 {
		return "Too many", ColorPoor
	}
	return "Good mix", ColorExcellent
}

// DTIColor maps a debt-to-income percentage onto a band color. The label
// next to it is the server's dtiStatus, displayed verbatim.
func DTIColor(dti float64) string {
	switch {
	case dti < 30:
		return ColorExcellent
	case dti < 40:
		return ColorFair
	default:
		return ColorPoor
	}
}

// Score gauge geometry: 36 segments spanning 270 degrees from -135, with
// the filled portion scaled by 0.75 so a perfect score leaves headroom.
const (
	GaugeSegments     = 36
	GaugeSweepDegrees = 270.0
	GaugeStartDegree  = -135.0
	gaugeFillFactor   = 0.75
)

// GaugeFilledSegments returns how many of the 36 segments light up for a
// score, rounded to nearest.
func GaugeFilledSegments(score float64) int {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score / 100 * GaugeSegments * gaugeFillFactor))
}

// GaugeSegmentAngle returns the center angle in degrees of segment i.
func GaugeSegmentAngle(i int) float64 {
	step := GaugeSweepDegrees / GaugeSegments
	return GaugeStartDegree + step*float64(i) + step/2
}

// gaugeGradient is the 12-color gauge palette. Slots are banded by the
// score percentage they begin at: below 40 poor, below 60 fair, below 80
// good, 80 and above excellent, with shade steps inside each band.
var gaugeGradient = [...]string{
	"#ef4444", "#f15555", "#f36666", "#f57777", "#f78888",
	"#f59e0b", "#f7ab2e", "#f9b851",
	"#3b82f6", "#5f9bf8",
	"#10b981", "#3bc79a",
}

// GaugeSegmentColor maps one of the 36 gauge segments onto the gradient.
func GaugeSegmentColor(segment int) string {
	if segment < 0 {
		segment = 0
	}
	if segment >= GaugeSegments {
		segment = GaugeSegments - 1
	}
	return gaugeGradient[segment*len(gaugeGradient)/GaugeSegments]
}

// Score reveal animation: the displayed number counts up from zero to the
// final score over 1.5 seconds.
const (
	RevealDuration = 1500 * time.Millisecond
	RevealSteps    = 30
)

// RevealInterval is the delay between count-up frames.
const RevealInterval = RevealDuration / RevealSteps

// CountUpFrames produces the displayed values of the count-up: monotone
// non-decreasing, never above the target, and ending exactly on it.
func CountUpFrames(target, steps int) []int {
	if steps < 1 || target <= 0 {
		return []int{max(target, 0)}
	}

	frames := make([]int, steps)
	for i := range steps {
		frames[i] = target * (i + 1) / steps
	}
	frames[steps-1] = target
	return frames
}

// FormatINR renders a rupee amount with Indian digit grouping
// (e.g. 1234567 -> "12,34,567"). Fractions are rounded away; the report
// displays whole rupees.
func FormatINR(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(0).String()

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}

	if len(s) <= 3 {
		b.WriteString(s)
		return b.String()
	}

	// Head groups of two digits, then the final group of three.
	head := s[:len(s)-3]
	tail := s[len(s)-3:]

	first := len(head) % 2
	if first == 0 {
		first = 2
	}
	b.WriteString(head[:first])
	for i := first; i < len(head); i += 2 {
		b.WriteByte(',')
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
