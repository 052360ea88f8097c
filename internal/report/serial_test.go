package report

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestDateSerialKnownValues(t *testing.T) {
	cases := []struct {
		date time.Time
		want int
	}{
		{time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC), 61},
		{time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), 46083},
		{time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), 45351},
		{time.Date(2200, time.January, 1, 0, 0, 0, 0, time.UTC), 109575},
		{time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC), 2958465},
	}
	for _, tc := range cases {
		if got := DateSerial(tc.date); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.date.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestDateSerialIgnoresLocationAndClock(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	late := time.Date(2026, time.March, 2, 23, 59, 0, 0, kst)
	if got := DateSerial(late); got != 46083 {
		t.Fatalf("expected 46083, got %d", got)
	}
}

func TestDateSerialRoundTrip(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	serial := DateSerial(date)
	if got := SerialDate(serial); !got.Equal(date) {
		t.Fatalf("round trip: expected %s, got %s", date, got)
	}
	decoded, err := excelize.ExcelDateToTime(float64(serial), false)
	if err != nil {
		t.Fatalf("excel decode: %v", err)
	}
	if decoded.Format("2006-01-02") != "2026-03-02" {
		t.Fatalf("spreadsheet decodes serial %d as %s", serial, decoded.Format("2006-01-02"))
	}
}
