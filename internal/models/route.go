package models

// RouteOption is one traffic-aware route alternative between an ambulance and
// its destination. Options are ranked ascending by DurationInTrafficMinutes;
// the first one is the recommended default.
type RouteOption struct {
	Summary                  string  `json:"summary"`
	DistanceKM               float64 `json:"distance_km"`
	DurationMinutes          int     `json:"duration_minutes"`
	DurationInTrafficMinutes int     `json:"duration_in_traffic_minutes"`
	TrafficDelayMinutes      int     `json:"traffic_delay_minutes"`
	TrafficDelayText         string  `json:"traffic_delay_text"`
	Polyline                 string  `json:"polyline,omitempty"`
	Recommended              bool    `json:"recommended"`
	Fallback                 bool    `json:"fallback"`
}
