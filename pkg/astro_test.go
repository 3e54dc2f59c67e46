package zmanim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jerusalemLat  = 31.778
	jerusalemLong = 35.235

	longyearbyenLat  = 78.22
	longyearbyenLong = 15.65
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHorizonDip(t *testing.T) {
	assert.Zero(t, horizonDip(0))
	assert.Zero(t, horizonDip(-10))

	low := horizonDip(100)
	high := horizonDip(800)
	assert.Greater(t, low, 0.0)
	assert.Greater(t, high, low)

	// ~800m lowers the horizon by roughly a degree
	assert.InDelta(t, 0.9, high, 0.2)
}

func TestVisibleCrossingsOrdering(t *testing.T) {
	day := date(2024, time.June, 21)

	rise, set := visibleCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC)
	require.False(t, rise.IsZero())
	require.False(t, set.IsZero())

	noon := solarNoon(day, jerusalemLong, time.UTC)
	assert.True(t, rise.Before(noon))
	assert.True(t, noon.Before(set))
}

func TestEquinoxDayNearTwelveHours(t *testing.T) {
	day := date(2024, time.March, 20)

	rise, set := visibleCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC)
	require.False(t, rise.IsZero())

	assert.InDelta(t, float64(12*time.Hour), float64(set.Sub(rise)), float64(15*time.Minute))
}

func TestElevationWidensDay(t *testing.T) {
	day := date(2024, time.March, 20)

	seaRise, seaSet := visibleCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC)
	hillRise, hillSet := visibleCrossings(day, jerusalemLat, jerusalemLong, 800, time.UTC)

	assert.True(t, hillRise.Before(seaRise))
	assert.True(t, hillSet.After(seaSet))
}

func TestDeeperAngleEarlierMorning(t *testing.T) {
	day := date(2024, time.March, 20)

	civil, _ := crossings(day, jerusalemLat, jerusalemLong, 0, time.UTC, 6)
	nautical, _ := crossings(day, jerusalemLat, jerusalemLong, 0, time.UTC, 12)
	astronomical, _ := crossings(day, jerusalemLat, jerusalemLong, 0, time.UTC, 18)

	assert.True(t, astronomical.Before(nautical))
	assert.True(t, nautical.Before(civil))
}

func TestPolarNightNoCrossings(t *testing.T) {
	day := date(2024, time.January, 15)

	rise, set := visibleCrossings(day, longyearbyenLat, longyearbyenLong, 0, time.UTC)
	assert.True(t, rise.IsZero())
	assert.True(t, set.IsZero())

	// The transit still happens even when the sun stays below the horizon
	noon := solarNoon(day, longyearbyenLong, time.UTC)
	assert.False(t, noon.IsZero())
}

func TestMidsummerNoDeepTwilight(t *testing.T) {
	day := date(2024, time.June, 21)

	// At 51.5°N the sun never reaches 18° below the horizon in late June
	morning, evening := crossings(day, 51.5, 0, 0, time.UTC, 18)
	assert.True(t, morning.IsZero())
	assert.True(t, evening.IsZero())
}

func TestSolarNoonNearApparentMidday(t *testing.T) {
	day := date(2024, time.March, 20)

	rise, set := visibleCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC)
	noon := solarNoon(day, jerusalemLong, time.UTC)

	apparent := rise.Add(set.Sub(rise) / 2)
	assert.InDelta(t, 0, float64(noon.Sub(apparent)), float64(2*time.Minute))
}

func TestMarchEquinoxDate(t *testing.T) {
	eq := marchEquinox(2024, time.UTC)

	assert.Equal(t, 2024, eq.Year())
	assert.Equal(t, time.March, eq.Month())
	assert.InDelta(t, 20, float64(eq.Day()), 1)
}

func TestSeasonalCrossingsMatchPlainAtEquinox(t *testing.T) {
	eq := marchEquinox(2024, time.UTC)

	plainMorning, plainEvening := crossings(eq, jerusalemLat, jerusalemLong, 0, time.UTC, 16.1)
	seasonalMorning, seasonalEvening := seasonalCrossings(eq, jerusalemLat, jerusalemLong, 0, time.UTC, 16.1)

	require.False(t, plainMorning.IsZero())
	require.False(t, seasonalMorning.IsZero())

	assert.InDelta(t, 0, float64(seasonalMorning.Sub(plainMorning)), float64(3*time.Minute))
	assert.InDelta(t, 0, float64(seasonalEvening.Sub(plainEvening)), float64(3*time.Minute))
}

func TestSeasonalCrossingsScaleWithDayLength(t *testing.T) {
	day := date(2024, time.June, 21)

	rise, _ := visibleCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC)
	plainMorning, _ := crossings(day, jerusalemLat, jerusalemLong, 0, time.UTC, 16.1)
	seasonalMorning, _ := seasonalCrossings(day, jerusalemLat, jerusalemLong, 0, time.UTC, 16.1)

	require.False(t, plainMorning.IsZero())
	require.False(t, seasonalMorning.IsZero())

	// Both sit before sunrise, but the two methods disagree off-equinox
	assert.True(t, seasonalMorning.Before(rise))
	assert.NotEqual(t, plainMorning, seasonalMorning)
}
