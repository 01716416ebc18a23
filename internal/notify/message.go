package notify

import (
	"strconv"
	"time"
)

// TimestampLayout renders event times at second precision.
const TimestampLayout = "2006-01-02 15:04:05"

const mapURLPrefix = "https://www.google.co.th/maps/place/"

// MapURL links to the coordinates on Google Maps. Coordinates use the shortest decimal
// form that round-trips, so 13.75,100.5 stays 13.75,100.5.
func MapURL(lat, lon float64) string {
	return mapURLPrefix +
		strconv.FormatFloat(lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(lon, 'f', -1, 64)
}

// FormatTimestamp renders ts in loc. A nil loc keeps ts in its own zone.
func FormatTimestamp(ts time.Time, loc *time.Location) string {
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts.Format(TimestampLayout)
}

// BuildMessage composes the notification text for one accident.
func BuildMessage(userName, level string, ts time.Time, loc *time.Location, lat, lon float64) string {
	return "\nผู้ใช้งาน: " + userName +
		"\nความรุนแรง: " + level +
		"\nได้รับประสบอุบัติเหตุเมื่อเวลา: " + FormatTimestamp(ts, loc) +
		"\nสถานที่เกิดอุบัติเหตุ: " + MapURL(lat, lon)
}
