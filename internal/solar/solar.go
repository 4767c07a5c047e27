// Package solar classifies a moment as day or night for a fixed site, which
// drives the camera exposure profile. It is pure arithmetic: seasonal solar
// declination, the hour angle for the site latitude, and solar noon shifted
// by longitude and the site's standard UTC offset.
package solar

import (
	"math"
	"time"
)

// Site holds the fixed geographic position of the camera.
type Site struct {
	Latitude       float64
	Longitude      float64
	UTCOffsetHours float64
}

// Window returns the sunrise and sunset as fractional local hours for the
// date of t. Near solstices at extreme latitudes the hour angle is clamped to
// the valid acos domain, collapsing to polar day (0..24) or polar night
// (empty window) instead of producing NaN.
func (s Site) Window(t time.Time) (sunrise, sunset float64) {
	dayOfYear := float64(t.YearDay())

	declination := deg2rad(-23.44 * math.Cos(deg2rad(360.0/365.0*(dayOfYear+10))))

	latRad := deg2rad(s.Latitude)
	cosHour := -math.Tan(latRad) * math.Tan(declination)
	cosHour = math.Max(-1, math.Min(1, cosHour))
	hourAngle := rad2deg(math.Acos(cosHour))

	solarNoonUTC := 12.0 - s.Longitude/15.0
	solarNoonLocal := solarNoonUTC + s.UTCOffsetHours

	sunrise = solarNoonLocal - hourAngle/15.0
	sunset = solarNoonLocal + hourAngle/15.0
	return sunrise, sunset
}

// IsDaytime reports whether the sun is up at t local time.
func (s Site) IsDaytime(t time.Time) bool {
	sunrise, sunset := s.Window(t)
	hour := float64(t.Hour()) + float64(t.Minute())/60.0
	return hour >= sunrise && hour <= sunset
}

// Mode returns the exposure profile label for t, "day" or "night".
func (s Site) Mode(t time.Time) string {
	if s.IsDaytime(t) {
		return "day"
	}
	return "night"
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180 }

func rad2deg(rad float64) float64 { return rad * 180 / math.Pi }
