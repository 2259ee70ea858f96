package value

import (
	"math"
	"time"
)

type DateSystem int8

const (
	Date1900 DateSystem = iota
	Date1904
)

// last serial accepted: 9999-12-31 in the 1900 system
const maxSerial1900 = 2958465

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

func (d DateSystem) String() string {
	if d == Date1904 {
		return "1904"
	}
	return "1900"
}

func (d DateSystem) max() float64 {
	if d == Date1904 {
		return maxSerial1900 - 1462
	}
	return maxSerial1900
}

// Serial converts a date to its serial number. The 1900 system keeps the
// phantom 29th of February 1900, so every date from March 1900 is one day
// ahead of the real day count.
func (d DateSystem) Serial(t time.Time) (float64, bool) {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	var epoch time.Time
	switch {
	case d == Date1904:
		epoch = epoch1904
	case t.Before(time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)):
		epoch = epoch1900
	default:
		epoch = epoch1900Minus1
	}
	serial := t.Sub(epoch).Hours() / 24
	if serial < 0 || serial >= d.max()+1 {
		return 0, false
	}
	return serial, true
}

// FromParts builds the serial of year, month and day the way DATE does:
// months and days out of their bounds roll over and years below 1900 are
// offset from 1900.
func (d DateSystem) FromParts(year, month, day int) (float64, bool) {
	if year < 0 || year > 9999 {
		return 0, false
	}
	if year < 1900 {
		year += 1900
	}
	if d == Date1900 && year == 1900 && month == 2 && day == 29 {
		return 60, true
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Serial(t)
}

// Time converts a serial number to a date. In the 1900 system, serial 60 has
// no real date and is reported as the 28th of February 1900; use Parts to get
// its Excel representation.
func (d DateSystem) Time(serial float64) (time.Time, bool) {
	if serial < 0 || serial >= d.max()+1 {
		return time.Time{}, false
	}
	var epoch time.Time
	switch {
	case d == Date1904:
		epoch = epoch1904
	case serial < 61:
		epoch = epoch1900
		if serial >= 60 {
			serial--
		}
	default:
		epoch = epoch1900Minus1
	}
	days := math.Floor(serial)
	ms := math.Round((serial - days) * 86400000)
	t := epoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
	return t, true
}

// Parts splits a serial into year, month and day, reporting 1900-02-29 for
// serial 60 in the 1900 system.
func (d DateSystem) Parts(serial float64) (int, int, int, bool) {
	if d == Date1900 && math.Floor(serial) == 60 {
		return 1900, 2, 29, true
	}
	t, ok := d.Time(serial)
	if !ok {
		return 0, 0, 0, false
	}
	if d == Date1900 && serial < 1 {
		return 1900, 1, 0, true
	}
	return t.Year(), int(t.Month()), t.Day(), true
}

// Clock splits the fractional part of a serial into hour, minute and second.
func Clock(serial float64) (int, int, int) {
	frac := serial - math.Floor(serial)
	secs := int(math.Round(frac * 86400))
	if secs >= 86400 {
		secs = 0
	}
	return secs / 3600, (secs / 60) % 60, secs % 60
}

// Weekday follows the day count of the serial. The 1900 system believes
// 1900-01-01 was a Sunday, which only agrees with the calendar from March
// 1900 onward.
func (d DateSystem) Weekday(serial float64) time.Weekday {
	offset := 6
	if d == Date1904 {
		offset = 5
	}
	day := (int(math.Floor(serial)) + offset) % 7
	if day < 0 {
		day += 7
	}
	return time.Weekday(day)
}
