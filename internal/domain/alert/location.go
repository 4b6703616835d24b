package alert

import (
	"errors"
	"strconv"

	"github.com/golang/geo/s2"
)

// mapsBaseURL is the link recipients open to see the fix.
const mapsBaseURL = "https://www.google.com/maps?q="

// ErrInvalidCoordinates is returned for latitude/longitude outside the globe.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// LocationFix is one position reported by the location source.
// Degrees are kept as reported so the map link does not drift through radians.
type LocationFix struct {
	Latitude  float64
	Longitude float64
	// AccuracyMeters is the radius reported by the provider, zero when unknown.
	AccuracyMeters float64
}

// NewLocationFix validates degrees and builds a fix.
func NewLocationFix(latitude, longitude float64) (*LocationFix, error) {
	fix := &LocationFix{Latitude: latitude, Longitude: longitude}
	if !fix.LatLng().IsValid() {
		return nil, ErrInvalidCoordinates
	}

	return fix, nil
}

// LatLng converts the fix to s2 form.
func (f *LocationFix) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(f.Latitude, f.Longitude)
}

// MapLink renders the fix as a maps URL. A nil fix yields an empty string.
func (f *LocationFix) MapLink() string {
	if f == nil {
		return ""
	}

	return mapsBaseURL + formatDegrees(f.Latitude) + "," + formatDegrees(f.Longitude)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
