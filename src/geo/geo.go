package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"PhotoMap/src/types"
)

// numberPrefix is the longest leading decimal number of a field, so
// "12.5abc" reads as 12.5 and "0x10" as 0.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Coordinates returns the parsed position of a record. ok is false when
// either coordinate is missing, has no leading number, or is exactly zero;
// zero stands for "no coordinate" in the source data.
func Coordinates(r types.PhotoRecord) (point types.GeoPoint, ok bool) {
	if r.Latitude == "" || r.Longitude == "" {
		return point, false
	}
	lat, err := parseLeadingFloat(r.Latitude)
	if err != nil {
		return point, false
	}
	lon, err := parseLeadingFloat(r.Longitude)
	if err != nil {
		return point, false
	}
	if lat == 0 || lon == 0 || !finite(lat) || !finite(lon) {
		return point, false
	}
	return types.GeoPoint{Lat: lat, Lon: lon}, true
}

func parseLeadingFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if m := numberPrefix.FindString(s); m != "" {
		s = m
	}
	return strconv.ParseFloat(s, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Filter keeps the records with usable coordinates, in source order.
func Filter(records []types.PhotoRecord) []types.Photo {
	photos := make([]types.Photo, 0, len(records))
	for _, r := range records {
		point, ok := Coordinates(r)
		if !ok {
			continue
		}
		photos = append(photos, types.Photo{
			Location:    point,
			Title:       r.Title,
			Institution: r.Institution,
			ImageURL:    r.ImageURL,
		})
	}
	return photos
}

// Bounds is the smallest box containing a set of points.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns nil for an empty set.
func BoundsOf(photos []types.Photo) *Bounds {
	if len(photos) == 0 {
		return nil
	}
	first := photos[0].Location
	b := &Bounds{South: first.Lat, North: first.Lat, West: first.Lon, East: first.Lon}
	for _, p := range photos[1:] {
		b.South = min(b.South, p.Location.Lat)
		b.North = max(b.North, p.Location.Lat)
		b.West = min(b.West, p.Location.Lon)
		b.East = max(b.East, p.Location.Lon)
	}
	return b
}
