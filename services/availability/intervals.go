package availability

import (
	"sort"
	"time"

	"slotify/models"
)

// mergeRanges sorts and coalesces overlapping or touching intervals.
func mergeRanges(ranges []models.TimeRange) []models.TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]models.TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// subtractRanges removes every cut from the base intervals, returning the
// sorted remainder. Base must be sorted and disjoint (mergeRanges output).
func subtractRanges(base, cuts []models.TimeRange) []models.TimeRange {
	if len(cuts) == 0 {
		return base
	}
	cuts = mergeRanges(cuts)

	var out []models.TimeRange
	for _, b := range base {
		start := b.Start
		for _, c := range cuts {
			if !c.Start.Before(b.End) {
				break
			}
			if !c.End.After(start) {
				continue
			}
			if c.Start.After(start) {
				out = append(out, models.TimeRange{Start: start, End: c.Start})
			}
			if c.End.After(start) {
				start = c.End
			}
			if !start.Before(b.End) {
				break
			}
		}
		if start.Before(b.End) {
			out = append(out, models.TimeRange{Start: start, End: b.End})
		}
	}
	return out
}

// fitsFree reports whether [t, t+dur) lies entirely inside one free interval.
func fitsFree(free []models.TimeRange, t time.Time, dur time.Duration) bool {
	span := models.TimeRange{Start: t, End: t.Add(dur)}
	for _, f := range free {
		if f.Contains(span) {
			return true
		}
		if f.Start.After(t) {
			break
		}
	}
	return false
}

// clockRange anchors a minutes-from-midnight span onto a local day.
func clockRange(dayStart time.Time, startMinute, endMinute int) models.TimeRange {
	return models.TimeRange{
		Start: dayStart.Add(time.Duration(startMinute) * time.Minute),
		End:   dayStart.Add(time.Duration(endMinute) * time.Minute),
	}
}

// workRanges resolves one staff member's working intervals for a local day:
// a schedule exception replaces the weekly rows outright; otherwise the
// weekday windows minus that weekday's breaks apply. dayStart must be local
// midnight in the business timezone.
func workRanges(staff *models.Staff, dayStart time.Time) []models.TimeRange {
	dateStr := dayStart.Format("2006-01-02")
	for _, ex := range staff.Exceptions {
		if ex.Date != dateStr {
			continue
		}
		if ex.Off || len(ex.Windows) == 0 {
			return nil
		}
		ranges := make([]models.TimeRange, 0, len(ex.Windows))
		for _, w := range ex.Windows {
			ranges = append(ranges, clockRange(dayStart, w.StartMinute, w.EndMinute))
		}
		return mergeRanges(ranges)
	}

	weekday := int(dayStart.Weekday())
	var windows, breaks []models.TimeRange
	for _, w := range staff.Windows {
		if w.Weekday == weekday {
			windows = append(windows, clockRange(dayStart, w.StartMinute, w.EndMinute))
		}
	}
	if len(windows) == 0 {
		return nil
	}
	for _, b := range staff.Breaks {
		if b.Weekday == weekday {
			breaks = append(breaks, clockRange(dayStart, b.StartMinute, b.EndMinute))
		}
	}
	return subtractRanges(mergeRanges(windows), breaks)
}

// occupiedRanges projects the occupying bookings onto plain intervals.
func occupiedRanges(bookings []models.Booking) []models.TimeRange {
	if len(bookings) == 0 {
		return nil
	}
	ranges := make([]models.TimeRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, models.TimeRange{Start: b.StartsAt, End: b.EndsAt})
	}
	return ranges
}

// dayStarts walks the work intervals of one local day and emits every legal
// start: grid-aligned to the interval opening, fully inside the free room
// left by occupied bookings, and inside the policy lead/horizon window.
func dayStarts(work, occupied []models.TimeRange, dur time.Duration, policy models.Policy, now time.Time) []time.Time {
	if len(work) == 0 || dur <= 0 {
		return nil
	}
	free := subtractRanges(work, occupied)
	grid := time.Duration(policy.SlotGridMinutes) * time.Minute
	if grid <= 0 {
		grid = 15 * time.Minute
	}
	minStart := now.Add(policy.LeadTime())
	maxStart := now.Add(policy.Horizon())

	var starts []time.Time
	for _, w := range work {
		for t := w.Start; !t.Add(dur).After(w.End); t = t.Add(grid) {
			if t.Before(minStart) || t.After(maxStart) {
				continue
			}
			if fitsFree(free, t, dur) {
				starts = append(starts, t)
			}
		}
	}
	return starts
}
