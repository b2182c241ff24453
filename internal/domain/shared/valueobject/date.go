package valueobject

import (
	"time"
)

// DisplayLayout is the date format shown to users
const DisplayLayout = "02 Jan 2006 / 3:04 PM"

// DisplayZone is the time zone dates are shown in
const DisplayZone = "Asia/Phnom_Penh"

var displayLocation = loadDisplayLocation()

func loadDisplayLocation() *time.Location {
	loc, err := time.LoadLocation(DisplayZone)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// DisplayDate renders t for display. A nil or zero time renders empty.
func DisplayDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(displayLocation).Format(DisplayLayout)
}
