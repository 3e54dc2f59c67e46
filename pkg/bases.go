package zmanim

import "time"

// DefaultEveningAnchor is the offset after sunset that closes the
// ateret_torah day when no other anchor is configured.
const DefaultEveningAnchor = 40 * time.Minute

// DayBoundary is a resolved proportional day: the interval a base keyword
// stands for on a particular date and place.
type DayBoundary struct {
	Start time.Time
	End   time.Time
}

// at returns the instant h proportional hours into the boundary, where the
// whole span is twelve hours. at(0) is Start, at(12) is End.
func (b DayBoundary) at(h float64) time.Time {
	return b.Start.Add(time.Duration(float64(b.End.Sub(b.Start)) * h / 12))
}

type baseKind int

const (
	baseSunUp baseKind = iota
	baseFixedMinutes
	baseZmanisMinutes
	baseDepressionAngle
	baseSunriseToAnchor
	baseCustom
)

type baseSpec struct {
	kind    baseKind
	minutes float64
	degrees float64
}

// baseTable maps every base keyword to how its boundary is derived. The
// zmanis families reinterpret their reference minutes as a fraction of a
// twelve-hour day, so the offset stretches with the season.
var baseTable = map[string]baseSpec{
	"gra": {kind: baseSunUp},

	"mga":     {kind: baseFixedMinutes, minutes: 72},
	"mga_60":  {kind: baseFixedMinutes, minutes: 60},
	"mga_72":  {kind: baseFixedMinutes, minutes: 72},
	"mga_90":  {kind: baseFixedMinutes, minutes: 90},
	"mga_96":  {kind: baseFixedMinutes, minutes: 96},
	"mga_120": {kind: baseFixedMinutes, minutes: 120},

	"mga_72_zmanis": {kind: baseZmanisMinutes, minutes: 72},
	"mga_90_zmanis": {kind: baseZmanisMinutes, minutes: 90},
	"mga_96_zmanis": {kind: baseZmanisMinutes, minutes: 96},

	"mga_16_1": {kind: baseDepressionAngle, degrees: 16.1},
	"mga_18":   {kind: baseDepressionAngle, degrees: 18},
	"mga_19_8": {kind: baseDepressionAngle, degrees: 19.8},
	"mga_26":   {kind: baseDepressionAngle, degrees: 26},

	"baal_hatanya": {kind: baseDepressionAngle, degrees: 1.583},

	"ateret_torah": {kind: baseSunriseToAnchor},

	"custom": {kind: baseCustom},
}

// resolveNamedBase maps a base keyword to its boundary on the context's
// date. ok=false means a boundary event does not occur there, which
// propagates as no event rather than an error. custom bases are assembled
// by the evaluator from their sub-expressions, never here.
func resolveNamedBase(ctx *EvalContext, name string, eveningAnchor time.Duration) (boundary DayBoundary, ok bool) {
	spec, known := baseTable[name]
	if !known || spec.kind == baseCustom {
		return DayBoundary{}, false
	}

	rise, set := ctx.visibleSun()

	switch spec.kind {
	case baseSunUp:
		if rise.IsZero() {
			return DayBoundary{}, false
		}
		return DayBoundary{Start: rise, End: set}, true

	case baseFixedMinutes:
		if rise.IsZero() {
			return DayBoundary{}, false
		}
		offset := time.Duration(spec.minutes * float64(time.Minute))
		return DayBoundary{Start: rise.Add(-offset), End: set.Add(offset)}, true

	case baseZmanisMinutes:
		if rise.IsZero() {
			return DayBoundary{}, false
		}
		offset := time.Duration(float64(set.Sub(rise)) * spec.minutes / 720)
		return DayBoundary{Start: rise.Add(-offset), End: set.Add(offset)}, true

	case baseDepressionAngle:
		morning, evening := ctx.sunAt(spec.degrees)
		if morning.IsZero() {
			return DayBoundary{}, false
		}
		return DayBoundary{Start: morning, End: evening}, true

	case baseSunriseToAnchor:
		if rise.IsZero() {
			return DayBoundary{}, false
		}
		return DayBoundary{Start: rise, End: set.Add(eveningAnchor)}, true
	}

	return DayBoundary{}, false
}
