package axis

import (
	"time"
)

type Unit int

const (
	UnitMinute Unit = iota
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

// Interval is a calendar step such as 15 minutes or 3 months
type Interval struct {
	Unit  Unit
	Count int
}

// Intervals is the ordered table walked when choosing a time step
var Intervals = []Interval{
	{UnitMinute, 1}, {UnitMinute, 5}, {UnitMinute, 15}, {UnitMinute, 30},
	{UnitHour, 1}, {UnitHour, 2}, {UnitHour, 4}, {UnitHour, 6}, {UnitHour, 12},
	{UnitDay, 1}, {UnitDay, 2},
	{UnitWeek, 1},
	{UnitMonth, 1}, {UnitMonth, 3}, {UnitMonth, 6},
	{UnitYear, 1}, {UnitYear, 2}, {UnitYear, 5}, {UnitYear, 10},
}

// TimeTick is one labelled position on a time axis. Major marks a rollover to a coarser unit
// (new day, month or year).
type TimeTick struct {
	Time  time.Time
	Label string
	Major bool
}

// Approx returns the nominal length of the interval
func (iv Interval) Approx() time.Duration {
	n := time.Duration(iv.Count)
	switch iv.Unit {
	case UnitMinute:
		return n * time.Minute
	case UnitHour:
		return n * time.Hour
	case UnitDay:
		return n * 24 * time.Hour
	case UnitWeek:
		return n * 7 * 24 * time.Hour
	case UnitMonth:
		return n * 30 * 24 * time.Hour
	default:
		return n * 365 * 24 * time.Hour
	}
}

// Floor aligns t down to the interval boundary in t's location
func (iv Interval) Floor(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	switch iv.Unit {
	case UnitMinute:
		return time.Date(y, m, d, t.Hour(), t.Minute()/iv.Count*iv.Count, 0, 0, loc)
	case UnitHour:
		return time.Date(y, m, d, t.Hour()/iv.Count*iv.Count, 0, 0, 0, loc)
	case UnitDay:
		return time.Date(y, m, (d-1)/iv.Count*iv.Count+1, 0, 0, 0, 0, loc)
	case UnitWeek:
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case UnitMonth:
		return time.Date(y, time.Month((int(m)-1)/iv.Count*iv.Count+1), 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y/iv.Count*iv.Count, time.January, 1, 0, 0, 0, 0, loc)
	}
}

// Next returns the boundary following an aligned t
func (iv Interval) Next(t time.Time) time.Time {
	switch iv.Unit {
	case UnitMinute:
		return t.Add(time.Duration(iv.Count) * time.Minute)
	case UnitHour:
		return iv.Floor(t.Add(time.Duration(iv.Count) * time.Hour))
	case UnitDay:
		next := t.AddDate(0, 0, iv.Count)
		// multi-day steps restart on the first of each month
		if next.Month() != t.Month() && next.Day() != 1 {
			next = time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, next.Location())
		}
		return next
	case UnitWeek:
		return t.AddDate(0, 0, 7*iv.Count)
	case UnitMonth:
		return t.AddDate(0, iv.Count, 0)
	default:
		return t.AddDate(iv.Count, 0, 0)
	}
}

// PickInterval returns the first table entry at least as long as span/count
func PickInterval(span time.Duration, count float64) Interval {
	if count < 1 {
		count = 1
	}
	raw := time.Duration(float64(span) / count)
	for _, iv := range Intervals {
		if iv.Approx() >= raw {
			return iv
		}
	}
	return Intervals[len(Intervals)-1]
}

// ComputeTimeTicks returns calendar-aligned ticks in [from, to], aiming for one tick every
// targetSpacingPx over pixelExtent. Alignment happens in loc (UTC when nil).
func ComputeTimeTicks(from, to time.Time, pixelExtent, targetSpacingPx float64, loc *time.Location) []TimeTick {
	if loc == nil {
		loc = time.UTC
	}
	from, to = from.In(loc), to.In(loc)
	if from.After(to) {
		from, to = to, from
	}
	if from.Equal(to) {
		return []TimeTick{{Time: from, Label: from.Format("Jan 2 15:04"), Major: true}}
	}

	count := 1.0
	if targetSpacingPx > 0 && pixelExtent > targetSpacingPx {
		count = pixelExtent / targetSpacingPx
	}
	iv := PickInterval(to.Sub(from), count)

	var ticks []TimeTick
	t := iv.Floor(from)
	if t.Before(from) {
		t = iv.Next(t)
	}
	for !t.After(to) && len(ticks) < maxTicks {
		label, major := iv.label(t)
		ticks = append(ticks, TimeTick{Time: t, Label: label, Major: major})

		next := iv.Next(t)
		if !next.After(t) {
			break
		}
		t = next
	}

	return ticks
}

func (iv Interval) label(t time.Time) (string, bool) {
	newYear := t.Month() == time.January && t.Day() == 1
	midnight := t.Hour() == 0 && t.Minute() == 0

	switch iv.Unit {
	case UnitMinute, UnitHour:
		if midnight {
			return t.Format("Jan 2"), true
		}
		return t.Format("15:04"), false
	case UnitDay, UnitWeek:
		switch {
		case newYear:
			return t.Format("2006"), true
		case t.Day() == 1:
			return t.Format("Jan"), true
		}
		return t.Format("Jan 2"), false
	case UnitMonth:
		if t.Month() == time.January {
			return t.Format("2006"), true
		}
		return t.Format("Jan"), false
	default:
		return t.Format("2006"), true
	}
}
