package timeexpr

import "time"

// AddMonths moves t by n calendar months, clamping the day of month to the
// length of the target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Truncate returns the start of the period of unit containing t, in UTC.
func Truncate(t time.Time, unit string) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch unit {
	case UnitMinute:
		return t.Truncate(time.Minute)
	case UnitHour:
		return t.Truncate(time.Hour)
	case UnitDay:
		return day
	case UnitWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case UnitISOWeek:
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case UnitMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case UnitQuarter:
		return time.Date(y, ((m-1)/3)*3+1, 1, 0, 0, 0, 0, time.UTC)
	case UnitYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Advance moves a period start by n whole periods.
func Advance(t time.Time, unit string, n int) time.Time {
	switch unit {
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitWeek, UnitISOWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return AddMonths(t, n)
	case UnitQuarter:
		return AddMonths(t, 3*n)
	case UnitYear:
		return AddMonths(t, 12*n)
	}
	return t
}

func shift(t time.Time, s Shift) time.Time {
	switch s.Unit {
	case UnitSecond:
		return t.Add(time.Duration(s.Amount) * time.Second)
	case UnitMinute:
		return t.Add(time.Duration(s.Amount) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(s.Amount) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, s.Amount)
	case UnitMonth:
		return AddMonths(t, s.Amount)
	}
	return t
}
