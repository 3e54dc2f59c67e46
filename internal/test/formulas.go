package test

import (
	"math/rand"
	"strings"
)

const validTokens = "sunrise;sunset;visible_sunrise;visible_sunset;geometric_sunrise;geometric_sunset;solar_noon;solar_midnight;civil_dawn;astronomical_dusk;solar;seasonal_solar;proportional_hours;proportional_minutes;midpoint;first_valid;coalesce;earlier_of;later_of;gra;mga;mga_72;mga_16_1;baal_hatanya;ateret_torah;custom;before_sunrise;after_sunset;before_visible_sunrise;after_geometric_sunset;before_noon;after_noon;latitude;day_length;season;if;else;@alos;@tzais_72;@candle_lighting;(;);{;};,;+;-;*;/;>;<;>=;<=;==;!=;&&;||;!;123;0.5;16.1;72min;1h 30min;90 minutes;9:30;12:00;21-Mar;29-Feb;\"spring\";\"\";// comment\n;/* comment */;\n"

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
