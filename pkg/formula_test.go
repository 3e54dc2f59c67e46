package zmanim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileExtractsDependencies(t *testing.T) {
	f, err := Compile("midpoint(@alos, @tzais)")
	require.NoError(t, err)

	assert.Equal(t, []string{"alos", "tzais"}, f.Deps)
	assert.Equal(t, "midpoint(@alos, @tzais)", f.Source)
}

func TestCompileRejectsInvalid(t *testing.T) {
	_, err := Compile("proportional_hours(3, @some_zman)")
	require.Error(t, err)

	var slot *BaseSlotError
	assert.True(t, errors.As(err, &slot))
}

func TestCompileSetUndefinedReference(t *testing.T) {
	_, err := CompileSet(map[string]string{
		"alos": "@tzais - 12h",
	})
	require.Error(t, err)

	var undef *UndefinedReferenceError
	require.True(t, errors.As(err, &undef))
	assert.Equal(t, "tzais", undef.Key)
}

func TestCompileSetCycleFails(t *testing.T) {
	_, err := CompileSet(map[string]string{
		"a": "@b + 5min",
		"b": "@a - 5min",
	})
	require.Error(t, err)

	var circular *CircularReferenceError
	require.True(t, errors.As(err, &circular))
	assert.ElementsMatch(t, []string{"a", "b"}, circular.Chain)
}

func TestCompileSetSelfCycleFails(t *testing.T) {
	_, err := CompileSet(map[string]string{
		"a": "@a + 5min",
	})
	require.Error(t, err)

	var circular *CircularReferenceError
	assert.True(t, errors.As(err, &circular))
}

// A set assembled without the construction-time cycle check, as when a
// formula changes between compilation and evaluation, still has to fail a
// cyclic evaluation instead of recursing forever.
func TestEvaluateDetectsCycleAtRuntime(t *testing.T) {
	a, err := Compile("@b + 1min")
	require.NoError(t, err)
	b, err := Compile("@a - 1min")
	require.NoError(t, err)

	set := &FormulaSet{
		formulas: map[string]*Formula{"a": a, "b": b},
		cfg:      newConfig(nil),
	}

	_, err = set.Evaluate("a", jerusalem(2024, time.March, 20))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular reference")
}

func TestCompileSetLongerCycle(t *testing.T) {
	_, err := CompileSet(map[string]string{
		"a": "@b + 5min",
		"b": "@c + 5min",
		"c": "@a + 5min",
		"d": "sunrise",
	})
	require.Error(t, err)

	var circular *CircularReferenceError
	require.True(t, errors.As(err, &circular))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, circular.Chain)
}

func TestCompileSetReportsEveryFailure(t *testing.T) {
	_, err := CompileSet(map[string]string{
		"bad_base":  "proportional_hours(3, @x)",
		"bad_range": "solar(95, before_sunrise)",
		"good":      "sunrise",
	})
	require.Error(t, err)

	var slot *BaseSlotError
	var rng *RangeError
	assert.True(t, errors.As(err, &slot))
	assert.True(t, errors.As(err, &rng))
}

func TestFormulaSetEvaluate(t *testing.T) {
	set, err := CompileSet(map[string]string{
		"alos":    "sunrise - 72min",
		"tzais":   "sunset + 72min",
		"chatzos": "midpoint(@alos, @tzais)",
	})
	require.NoError(t, err)

	ctx := jerusalem(2024, time.March, 20)

	chatzos, err := set.Evaluate("chatzos", ctx)
	require.NoError(t, err)
	require.Equal(t, KindTime, chatzos.Kind)

	alos, err := set.Evaluate("alos", ctx)
	require.NoError(t, err)
	tzais, err := set.Evaluate("tzais", ctx)
	require.NoError(t, err)

	want := alos.Time.Add(tzais.Time.Sub(alos.Time) / 2)
	assert.True(t, chatzos.Time.Equal(want))
}

func TestFormulaSetEvaluateUnknownKey(t *testing.T) {
	set, err := CompileSet(map[string]string{"alos": "sunrise - 72min"})
	require.NoError(t, err)

	_, err = set.Evaluate("tzais", jerusalem(2024, time.March, 20))
	assert.Error(t, err)
}

func TestFormulaSetEvaluateAll(t *testing.T) {
	set, err := CompileSet(map[string]string{
		"alos":           "sunrise - 72min",
		"tzais":          "sunset + 72min",
		"chatzos":        "midpoint(@alos, @tzais)",
		"sof_zman_shema": "proportional_hours(3, gra)",
	})
	require.NoError(t, err)

	res := set.EvaluateAll(jerusalem(2024, time.March, 20))

	assert.Empty(t, res.Errors)
	assert.Len(t, res.Values, 4)
	for key, v := range res.Values {
		assert.Equal(t, KindTime, v.Kind, key)
	}
}

func TestFormulaSetEvaluateAllPartialFailure(t *testing.T) {
	set, err := CompileSet(map[string]string{
		"good": "sunrise",
		"bad":  "sunrise + 60min / 0",
	})
	require.NoError(t, err)

	res := set.EvaluateAll(jerusalem(2024, time.March, 20))

	assert.Contains(t, res.Values, "good")
	assert.NotContains(t, res.Values, "bad")
	assert.Contains(t, res.Errors, "bad")
}

func TestFormulaSetSharedReferencesAgree(t *testing.T) {
	set, err := CompileSet(map[string]string{
		"alos":  "sunrise - 72min",
		"early": "@alos - 10min",
		"late":  "@alos + 10min",
	})
	require.NoError(t, err)

	res := set.EvaluateAll(jerusalem(2024, time.March, 20))
	require.Empty(t, res.Errors)

	gap := res.Values["late"].Time.Sub(res.Values["early"].Time)
	assert.Equal(t, 20*time.Minute, gap)
}

func TestFormulaSetKeys(t *testing.T) {
	set, err := CompileSet(map[string]string{
		"b": "sunrise",
		"a": "sunset",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, set.Keys())

	f, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, "sunset", f.Source)
}

func TestEngineRegistry(t *testing.T) {
	engine := NewEngine(WithRegistry(func(key string) bool {
		return key == "external"
	}))

	_, err := engine.Compile("@external + 5min")
	assert.NoError(t, err)

	_, err = engine.Compile("@missing + 5min")
	require.Error(t, err)

	var undef *UndefinedReferenceError
	assert.True(t, errors.As(err, &undef))
}

func TestNoEventValueHelpers(t *testing.T) {
	assert.True(t, TimeValue(time.Time{}).IsAbsent())
	assert.False(t, TimeValue(time.Now()).IsAbsent())
	assert.Equal(t, "no event", NoEvent.String())
}
