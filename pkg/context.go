package zmanim

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// EvalContext carries the date and place a formula is evaluated against,
// plus request-scoped memo caches. A context is safe for concurrent use;
// evaluations sharing one context share its astronomical computations.
type EvalContext struct {
	Date      time.Time
	Latitude  float64
	Longitude float64
	Elevation float64
	TZ        *time.Location

	flight singleflight.Group

	mu    sync.Mutex
	pairs map[string]sunPair
	refs  map[string]Value
}

type sunPair struct {
	morning, evening time.Time
}

// NewEvalContext builds a context for one date and place. Elevation is in
// meters above sea level and is always consulted, sea level being zero. A
// nil tz defaults to UTC.
func NewEvalContext(date time.Time, latitude, longitude, elevation float64, tz *time.Location) *EvalContext {
	if tz == nil {
		tz = time.UTC
	}
	return &EvalContext{
		Date:      date,
		Latitude:  latitude,
		Longitude: longitude,
		Elevation: elevation,
		TZ:        tz,
		pairs:     make(map[string]sunPair),
		refs:      make(map[string]Value),
	}
}

// pair memoizes one crossing computation per key, collapsing concurrent
// callers into a single computation.
func (c *EvalContext) pair(key string, compute func() sunPair) sunPair {
	c.mu.Lock()
	if p, ok := c.pairs[key]; ok {
		c.mu.Unlock()
		return p
	}
	c.mu.Unlock()

	res, _, _ := c.flight.Do(key, func() (any, error) {
		p := compute()
		c.mu.Lock()
		c.pairs[key] = p
		c.mu.Unlock()
		return p, nil
	})
	return res.(sunPair)
}

// sunAt returns the memoized crossings of the given depression angle.
func (c *EvalContext) sunAt(degreesBelow float64) (morning, evening time.Time) {
	p := c.pair(fmt.Sprintf("sun:%.6f", degreesBelow), func() sunPair {
		m, e := crossings(c.Date, c.Latitude, c.Longitude, c.Elevation, c.TZ, degreesBelow)
		return sunPair{m, e}
	})
	return p.morning, p.evening
}

// seasonalSunAt returns the memoized seasonal-method crossings of the angle.
func (c *EvalContext) seasonalSunAt(degreesBelow float64) (morning, evening time.Time) {
	p := c.pair(fmt.Sprintf("seasonal:%.6f", degreesBelow), func() sunPair {
		m, e := seasonalCrossings(c.Date, c.Latitude, c.Longitude, c.Elevation, c.TZ, degreesBelow)
		return sunPair{m, e}
	})
	return p.morning, p.evening
}

func (c *EvalContext) visibleSun() (rise, set time.Time) {
	return c.sunAt(refractionDeg)
}

func (c *EvalContext) geometricSun() (rise, set time.Time) {
	return c.sunAt(0)
}

func (c *EvalContext) noon() time.Time {
	p := c.pair("noon", func() sunPair {
		t := solarNoon(c.Date, c.Longitude, c.TZ)
		return sunPair{morning: t, evening: t}
	})
	return p.morning
}

// dayLength returns sunset minus sunrise for the visible day, ok=false when
// the sun never rises or never sets.
func (c *EvalContext) dayLength() (time.Duration, bool) {
	rise, set := c.visibleSun()
	if rise.IsZero() {
		return 0, false
	}
	return set.Sub(rise), true
}

// reference memoizes one referenced formula's value per context, sharing a
// single evaluation between concurrent callers.
func (c *EvalContext) reference(key string, compute func() (Value, error)) (Value, error) {
	c.mu.Lock()
	if v, ok := c.refs[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	res, err, _ := c.flight.Do("ref:"+key, func() (any, error) {
		v, err := compute()
		if err != nil {
			return Value{}, err
		}
		c.mu.Lock()
		c.refs[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return Value{}, err
	}
	return res.(Value), nil
}

// season names the meteorological season for the context's month, flipped
// for the southern hemisphere.
func (c *EvalContext) season() string {
	north := c.Latitude >= 0
	switch m := c.Date.Month(); {
	case m >= time.March && m <= time.May:
		if north {
			return "spring"
		}
		return "autumn"
	case m >= time.June && m <= time.August:
		if north {
			return "summer"
		}
		return "winter"
	case m >= time.September && m <= time.November:
		if north {
			return "autumn"
		}
		return "spring"
	default:
		if north {
			return "winter"
		}
		return "summer"
	}
}
