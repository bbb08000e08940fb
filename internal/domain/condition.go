package domain

import "strings"

// ConditionCode is the closed set of weather conditions the dashboard knows about.
type ConditionCode string

const (
	ConditionClear   ConditionCode = "clear"
	ConditionClouds  ConditionCode = "clouds"
	ConditionDrizzle ConditionCode = "drizzle"
	ConditionMist    ConditionCode = "mist"
	ConditionRain    ConditionCode = "rain"
	ConditionSnow    ConditionCode = "snow"
	ConditionOther   ConditionCode = "other"
)

// upstreamConditions maps lower-cased OpenWeather condition groups.
var upstreamConditions = map[string]ConditionCode{
	"clear":        ConditionClear,
	"clouds":       ConditionClouds,
	"drizzle":      ConditionDrizzle,
	"mist":         ConditionMist,
	"fog":          ConditionMist,
	"haze":         ConditionMist,
	"rain":         ConditionRain,
	"thunderstorm": ConditionRain,
	"snow":         ConditionSnow,
}

// ParseConditionCode maps an upstream condition group onto a ConditionCode.
// Unrecognized input yields ConditionOther.
func ParseConditionCode(s string) ConditionCode {
	if c, ok := upstreamConditions[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return ConditionOther
}
