package report

import "time"

const secondsPerDay = 24 * 60 * 60

var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateSerial converts the calendar date of t to a spreadsheet date serial.
// The +2 accounts for serial 1 being 1900-01-01 and the phantom 1900-02-29.
// Only the year, month and day of t are used, so the result does not depend
// on t's location.
func DateSerial(t time.Time) int {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int((utc.Unix()-serialEpoch.Unix())/secondsPerDay) + 2
}

// SerialDate is the inverse of DateSerial for dates after 1900-02-28.
func SerialDate(serial int) time.Time {
	return serialEpoch.AddDate(0, 0, serial-2)
}
