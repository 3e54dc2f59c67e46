package zmanim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorAccepts(t *testing.T) {
	cases := []string{
		"sunrise",
		"sunrise + 72min",
		"72min + 18min",
		"18min * 2",
		"(sunset - sunrise) / 2",
		"solar(16.1, before_sunrise)",
		"solar(0, after_noon)",
		"seasonal_solar(16.1, before_visible_sunrise)",
		"proportional_hours(3, gra)",
		"proportional_hours(0.5, mga_16_1)",
		"proportional_hours(10.75, custom(sunrise - 72min, sunset + 72min))",
		"proportional_minutes(90, after_sunset)",
		"midpoint(sunrise, sunset)",
		"earlier_of(sunset, 19:30)",
		"later_of(@alos, sunrise)",
		"first_valid(solar(16.1, before_sunrise), sunrise - 72min)",
		"coalesce(astronomical_dawn, nautical_dawn, sunrise)",
		"if (latitude > 40) { solar(16.1, before_sunrise) } else { sunrise - 72min }",
		"if (season == \"winter\") { sunset + 30min } else { sunset + 40min }",
		"if (date >= 21-Mar && date < 21-Sep) { sunrise } else { sunset }",
		"if (day_length > 12h) { sunrise } else { sunset }",
		"22:00 - 30min",
		"sunset - sunrise",
	}

	for _, src := range cases {
		err := Validate(Parse(src))
		assert.NoError(t, err, src)
	}
}

func TestValidatorRejects(t *testing.T) {
	cases := []struct {
		data   string
		expect CompileError
	}{
		{"sunrise + sunset", &TypeError{}},
		{"sunrise * 2", &TypeError{}},
		{"sunrise + 5", &TypeError{}},
		{"72min * 18min", &TypeError{}},
		{"frobnicate(1)", &UndefinedFunctionError{}},
		{"solar(16.1)", &ArityError{}},
		{"solar(91, before_sunrise)", &RangeError{}},
		{"solar(-1, before_sunrise)", &RangeError{}},
		{"solar(16.1, gra)", &DirectionSlotError{}},
		{"seasonal_solar(16.1, before_noon)", &DirectionSlotError{}},
		{"proportional_hours(13, gra)", &RangeError{}},
		{"proportional_hours(0.25, gra)", &RangeError{}},
		{"proportional_hours(3, @some_zman)", &BaseSlotError{}},
		{"proportional_hours(3, sunrise)", &BaseSlotError{}},
		{"proportional_minutes(0, before_sunrise)", &RangeError{}},
		{"proportional_minutes(201, after_sunset)", &RangeError{}},
		{"proportional_minutes(90, before_noon)", &DirectionSlotError{}},
		{"midpoint(sunrise)", &ArityError{}},
		{"midpoint(sunrise, 72min)", &TypeError{}},
		{"first_valid(sunrise)", &ArityError{}},
		{"sunrise +", &SyntaxError{}},
		{"latitude > 40", &ResultTypeError{}},
		{"season", &ResultTypeError{}},
		{"if (latitude > 40) { sunrise } else { 72min }", &TypeError{}},
		{"if (latitude) { sunrise } else { sunset }", &TypeError{}},
		{"if (season == 3) { sunrise } else { sunset }", &TypeError{}},
		{"if (season > \"spring\") { sunrise } else { sunset }", &TypeError{}},
		{"!sunrise", &TypeError{}},
	}

	for _, c := range cases {
		err := Validate(Parse(c.data))
		require.Error(t, err, c.data)

		list, ok := err.(ErrorList)
		require.True(t, ok, c.data)
		require.NotEmpty(t, list, c.data)
		assert.IsType(t, c.expect, list[0], c.data)
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	err := Validate(Parse("midpoint(solar(91, before_sunrise), frobnicate(1))"))
	require.Error(t, err)

	list, ok := err.(ErrorList)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(list), 2)
}

func TestValidatorStampsTypes(t *testing.T) {
	tree := Parse("sunset - sunrise")
	require.NoError(t, Validate(tree))

	assert.Equal(t, TypeDuration, tree.Type())

	expr := tree.(*BinaryExpr)
	assert.Equal(t, TypeTime, expr.Op1.Type())
	assert.Equal(t, TypeTime, expr.Op2.Type())
}

func TestValidatorCoalesceTypeFollowsFirstArg(t *testing.T) {
	tree := Parse("first_valid(sunrise - 72min, sunrise)")
	require.NoError(t, Validate(tree))
	assert.Equal(t, TypeTime, tree.Type())
}

func TestValidatorRegistry(t *testing.T) {
	known := func(key string) bool { return key == "alos" }

	v := NewValidator()
	v.SetRegistry(known)
	assert.NoError(t, v.Validate(Parse("@alos + 5min")))

	v = NewValidator()
	v.SetRegistry(known)
	err := v.Validate(Parse("@tzais + 5min"))
	require.Error(t, err)

	list := err.(ErrorList)
	require.NotEmpty(t, list)
	assert.IsType(t, &UndefinedReferenceError{}, list[0])
}

func TestValidatorDependencyExtraction(t *testing.T) {
	tree := Parse("midpoint(@alos, later_of(@tzais, @alos))")
	assert.Equal(t, []string{"alos", "tzais"}, references(tree))
}
