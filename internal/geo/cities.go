package geo

import (
	"strings"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// staticCities maps normalized major-city names to coordinates. Used as the
// final geocoding fallback when every network provider fails.
var staticCities = map[string]types.Coordinates{
	"new york":      {Lat: 40.7128, Lng: -74.0060},
	"new york city": {Lat: 40.7128, Lng: -74.0060},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437},
	"chicago":       {Lat: 41.8781, Lng: -87.6298},
	"houston":       {Lat: 29.7604, Lng: -95.3698},
	"phoenix":       {Lat: 33.4484, Lng: -112.0740},
	"philadelphia":  {Lat: 39.9526, Lng: -75.1652},
	"san antonio":   {Lat: 29.4241, Lng: -98.4936},
	"san diego":     {Lat: 32.7157, Lng: -117.1611},
	"dallas":        {Lat: 32.7767, Lng: -96.7970},
	"austin":        {Lat: 30.2672, Lng: -97.7431},
	"san francisco": {Lat: 37.7749, Lng: -122.4194},
	"seattle":       {Lat: 47.6062, Lng: -122.3321},
	"denver":        {Lat: 39.7392, Lng: -104.9903},
	"boston":        {Lat: 42.3601, Lng: -71.0589},
	"las vegas":     {Lat: 36.1699, Lng: -115.1398},
	"atlanta":       {Lat: 33.7490, Lng: -84.3880},
	"miami":         {Lat: 25.7617, Lng: -80.1918},
	"washington":    {Lat: 38.9072, Lng: -77.0369},
	"washington dc": {Lat: 38.9072, Lng: -77.0369},
	"nashville":     {Lat: 36.1627, Lng: -86.7816},
	"portland":      {Lat: 45.5152, Lng: -122.6784},
	"new orleans":   {Lat: 29.9511, Lng: -90.0715},
	"detroit":       {Lat: 42.3314, Lng: -83.0458},
	"minneapolis":   {Lat: 44.9778, Lng: -93.2650},
	"london":        {Lat: 51.5074, Lng: -0.1278},
	"toronto":       {Lat: 43.6532, Lng: -79.3832},
}

// lookupCity matches the input against the static city table. The match is
// prefix-based so "Chicago, IL" resolves the same as "Chicago".
func lookupCity(location string) *types.Coordinates {
	normalized := strings.ToLower(strings.TrimSpace(location))

	if coords, ok := staticCities[normalized]; ok {
		c := coords
		return &c
	}

	// Try the city portion of "City, State" style input
	if idx := strings.IndexAny(normalized, ","); idx > 0 {
		city := strings.TrimSpace(normalized[:idx])
		if coords, ok := staticCities[city]; ok {
			c := coords
			return &c
		}
	}

	return nil
}
