package model

import (
	"fmt"
	"time"
)

// Complete records a completion on now's calendar date and updates streaks.
// It returns already=true, leaving the habit untouched, when the habit was
// already completed within the current period.
func (h *Habit) Complete(now time.Time) (already bool, err error) {
	today := dateOnly(now)

	if h.LastCompleted != nil && *h.LastCompleted != "" {
		last, err := time.ParseInLocation(DateLayout, *h.LastCompleted, now.Location())
		if err != nil {
			return false, fmt.Errorf("habit %d: parsing last completion %q: %w", h.ID, *h.LastCompleted, err)
		}

		same, consecutive, err := comparePeriods(h.Frequency, last, today)
		if err != nil {
			return false, err
		}
		if same {
			return true, nil
		}
		if consecutive {
			h.CurrentStreak++
		} else {
			h.CurrentStreak = 1
		}
	} else {
		h.CurrentStreak = 1
	}

	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	date := FormatDate(today)
	h.LastCompleted = &date
	return false, nil
}

// comparePeriods reports whether last and today fall in the same period for
// the frequency, or in directly consecutive periods.
func comparePeriods(freq Frequency, last, today time.Time) (same, consecutive bool, err error) {
	switch freq {
	case FrequencyDaily:
		days := daysBetween(last, today)
		return days <= 0, days == 1, nil

	case FrequencyWeekly:
		ly, lw := last.ISOWeek()
		ty, tw := today.ISOWeek()
		if ly == ty && lw == tw {
			return true, false, nil
		}
		py, pw := today.AddDate(0, 0, -7).ISOWeek()
		return false, ly == py && lw == pw, nil

	case FrequencyWeekdays:
		lp, tp := weekdayPeriod(last), weekdayPeriod(today)
		if daysBetween(lp, tp) <= 0 {
			return true, false, nil
		}
		return false, lp.Equal(previousWeekday(tp)), nil

	default:
		return false, false, fmt.Errorf("%w: frequency %q", ErrInvalidValue, freq)
	}
}

// weekdayPeriod maps a weekend date to the Friday before it. Other dates
// are their own period.
func weekdayPeriod(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return dateOnly(t.AddDate(0, 0, -1))
	case time.Sunday:
		return dateOnly(t.AddDate(0, 0, -2))
	}
	return dateOnly(t)
}

// previousWeekday returns the last Monday–Friday date strictly before t.
func previousWeekday(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return dateOnly(d)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring DST drift.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
