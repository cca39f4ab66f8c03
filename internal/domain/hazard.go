package domain

// Hazard type labels used on the wire. Every article and event carries exactly
// one of these, or HazardUnknown.
const (
	HazardStorm           = "storm"
	HazardStormSurge      = "storm_surge"
	HazardFloodLandslide  = "flood_landslide"
	HazardHeatDrought     = "heat_drought"
	HazardWindFog         = "wind_fog"
	HazardExtremeWeather  = "extreme_weather"
	HazardWildfire        = "wildfire"
	HazardQuakeTsunami    = "quake_tsunami"
	HazardWarningForecast = "warning_forecast"
	HazardRecovery        = "recovery"
	HazardMarine          = "marine"
	HazardUnknown         = "unknown"
)

// HazardPriority orders the labels from most to least specific. The primary
// type of a text is the first label in this list that matches.
var HazardPriority = []string{
	HazardStorm,
	HazardQuakeTsunami,
	HazardStormSurge,
	HazardFloodLandslide,
	HazardWildfire,
	HazardExtremeWeather,
	HazardHeatDrought,
	HazardWindFog,
	HazardMarine,
	HazardWarningForecast,
	HazardRecovery,
}

// IsHazardType reports whether s is one of the closed taxonomy labels or HazardUnknown.
func IsHazardType(s string) bool {
	if s == HazardUnknown {
		return true
	}
	for _, h := range HazardPriority {
		if h == s {
			return true
		}
	}
	return false
}

// IsMetaHazard reports whether the label describes the news cycle around a
// hazard (forecasts, relief) rather than a physical phenomenon.
func IsMetaHazard(s string) bool {
	return s == HazardWarningForecast || s == HazardRecovery
}
