package sun

import (
	"math"
	"testing"
	"time"
)

func TestDefaultDirectionIsUnit(t *testing.T) {
	if l := DefaultDirection.Length(); math.Abs(l-1) > 1e-12 {
		t.Errorf("length %f, want 1", l)
	}
}

func TestSubsolarLatitudeFollowsSeasons(t *testing.T) {
	tests := []struct {
		name   string
		when   time.Time
		minLat float64
		maxLat float64
	}{
		{"june solstice", time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC), 23, 23.6},
		{"december solstice", time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC), -23.6, -23},
		{"march equinox", time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC), -0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, _ := SubsolarPoint(tt.when)
			if lat < tt.minLat || lat > tt.maxLat {
				t.Errorf("subsolar latitude %f, want in [%f, %f]", lat, tt.minLat, tt.maxLat)
			}
		})
	}
}

func TestSubsolarLongitudeFollowsClock(t *testing.T) {
	// Around 12:00 UTC the sun is overhead near the prime meridian, give or
	// take the equation of time.
	_, lon := SubsolarPoint(time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC))
	if math.Abs(lon) > 5 {
		t.Errorf("noon subsolar longitude %f, want near 0", lon)
	}
	_, lon = SubsolarPoint(time.Date(2024, 4, 15, 18, 0, 0, 0, time.UTC))
	if math.Abs(lon+90) > 5 {
		t.Errorf("18:00 subsolar longitude %f, want near -90", lon)
	}
}
