package zmanim

import (
	"math"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
	"github.com/mooncaker816/learnmeeus/v3/solstice"
	"github.com/nathan-osman/go-sunrise"
	"github.com/soniakeys/unit"
)

const (
	// earthRadiusMeters is the polar radius used for the horizon dip.
	earthRadiusMeters = 6356900

	// refractionDeg is the standard correction for atmospheric refraction
	// plus the solar semidiameter, making "visible" rise/set the moment the
	// upper limb touches the apparent horizon.
	refractionDeg = 0.833
)

// horizonDip returns the extra depression of the horizon, in degrees, seen
// by an observer at the given elevation above sea level.
func horizonDip(elevationMeters float64) float64 {
	if elevationMeters <= 0 {
		return 0
	}
	dip := math.Acos(earthRadiusMeters / (earthRadiusMeters + elevationMeters))
	return unit.Angle(dip).Deg()
}

// crossings returns the morning and evening instants at which the sun's
// center crosses the given depression angle below the geometric horizon,
// corrected for observer elevation. Zero times mean the crossing does not
// happen on that date, as in polar regions.
func crossings(date time.Time, lat, long, elevation float64, tz *time.Location, degreesBelow float64) (morning, evening time.Time) {
	angle := -(degreesBelow + horizonDip(elevation))
	y, m, d := date.Date()
	morning, evening = sunrise.TimeOfElevation(lat, long, angle, y, m, d)
	if morning.IsZero() || evening.IsZero() {
		return time.Time{}, time.Time{}
	}
	return morning.In(tz), evening.In(tz)
}

// visibleCrossings returns visible sunrise and sunset: the refracted upper
// limb on the elevation-corrected horizon.
func visibleCrossings(date time.Time, lat, long, elevation float64, tz *time.Location) (rise, set time.Time) {
	return crossings(date, lat, long, elevation, tz, refractionDeg)
}

// geometricCrossings returns geometric sunrise and sunset: the sun's center
// on the horizon, no refraction, elevation dip only.
func geometricCrossings(date time.Time, lat, long, elevation float64, tz *time.Location) (rise, set time.Time) {
	return crossings(date, lat, long, elevation, tz, 0)
}

// solarNoon returns the moment of the sun's upper transit for the date and
// longitude. It exists on every date at every latitude and does not depend
// on elevation.
func solarNoon(date time.Time, long float64, tz *time.Location) time.Time {
	y, m, d := date.Date()
	day := sunrise.MeanSolarNoon(long, y, m, d)
	anomaly := sunrise.SolarMeanAnomaly(day)
	center := sunrise.EquationOfCenter(anomaly)
	eclipticLong := sunrise.EclipticLongitude(anomaly, center, day)
	transit := sunrise.SolarTransit(day, anomaly, eclipticLong)
	return sunrise.JulianDayToTime(transit).In(tz)
}

// solarMidnight returns the lower transit preceding the date's solar noon.
func solarMidnight(date time.Time, long float64, tz *time.Location) time.Time {
	return solarNoon(date, long, tz).Add(-12 * time.Hour)
}

// marchEquinox returns the calendar date of the March equinox for the year,
// in the given zone.
func marchEquinox(year int, tz *time.Location) time.Time {
	y, m, d := julian.JDToCalendar(solstice.March(year))
	return time.Date(y, time.Month(m), int(d), 12, 0, 0, 0, tz)
}

// seasonalCrossings returns depression-angle crossings computed by the
// seasonal proportional method: the offset between the crossing and visible
// rise/set is measured on the March equinox, then scaled by the ratio of
// today's day length to the equinox day length. Zero times mean the
// reference events are unavailable.
func seasonalCrossings(date time.Time, lat, long, elevation float64, tz *time.Location, degreesBelow float64) (morning, evening time.Time) {
	rise, set := visibleCrossings(date, lat, long, elevation, tz)
	if rise.IsZero() {
		return time.Time{}, time.Time{}
	}

	equinox := marchEquinox(date.Year(), tz)
	eqRise, eqSet := visibleCrossings(equinox, lat, long, elevation, tz)
	eqMorning, eqEvening := crossings(equinox, lat, long, elevation, tz, degreesBelow)
	if eqRise.IsZero() || eqMorning.IsZero() {
		return time.Time{}, time.Time{}
	}

	ratio := float64(set.Sub(rise)) / float64(eqSet.Sub(eqRise))
	morning = rise.Add(-time.Duration(float64(eqRise.Sub(eqMorning)) * ratio))
	evening = set.Add(time.Duration(float64(eqEvening.Sub(eqSet)) * ratio))
	return morning, evening
}
