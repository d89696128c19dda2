package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"slotify/models"
)

// nextBoundary returns the start of the earliest occupied interval at or
// after t, or sentinel when the rest of the day is clear. The farther the
// boundary, the more contiguous room a staff member keeps around t.
func nextBoundary(occupied []models.TimeRange, t, sentinel time.Time) time.Time {
	boundary := sentinel
	for _, o := range occupied {
		if o.Start.Before(t) {
			continue
		}
		if o.Start.Before(boundary) {
			boundary = o.Start
		}
	}
	return boundary
}

// anySlots unions the per-staff starts for one day and picks a staff member
// per instant: farthest next-occupied boundary first, lowest staff id on
// ties. Iterating staff in ascending id order with a strictly-after
// comparison realizes the tie rule.
func (e *DefaultAvailabilityEngine) anySlots(ctx context.Context, staffList []models.Staff, services []models.Service, dayStart time.Time, policy models.Policy, now time.Time) ([]models.SlotOption, error) {
	sort.Slice(staffList, func(i, j int) bool { return staffList[i].ID < staffList[j].ID })
	dayEnd := dayStart.AddDate(0, 0, 1)

	type pick struct {
		start    time.Time
		staffID  string
		boundary time.Time
	}
	picks := make(map[int64]pick)

	for i := range staffList {
		staff := &staffList[i]
		starts, occ, err := e.staffDayStarts(ctx, staff, services, dayStart, policy, now)
		if err != nil {
			return nil, err
		}
		for _, t := range starts {
			boundary := nextBoundary(occ, t, dayEnd)
			key := t.Unix()
			cur, taken := picks[key]
			if !taken || boundary.After(cur.boundary) {
				picks[key] = pick{start: t, staffID: staff.ID, boundary: boundary}
			}
		}
	}

	keys := make([]int64, 0, len(picks))
	for k := range picks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	slots := make([]models.SlotOption, 0, len(keys))
	for _, k := range keys {
		p := picks[k]
		slots = append(slots, models.SlotOption{Start: p.start.UTC(), StaffID: p.staffID})
	}
	return slots, nil
}

// PickStaff applies the same selection rule to a single proposed start: among
// the eligible staff free at that instant, prefer the one whose next occupied
// boundary is farthest, breaking ties by lowest staff id. The first failed
// check (in id order) is reported when nobody is free.
func (e *DefaultAvailabilityEngine) PickStaff(ctx context.Context, services []models.Service, clientID string, start time.Time, policy models.Policy, now time.Time) (*models.Staff, time.Duration, *models.SlotCheck, error) {
	staffList, err := e.Catalog.EligibleStaff(ctx, services)
	if err != nil {
		return nil, 0, nil, err
	}
	sort.Slice(staffList, func(i, j int) bool { return staffList[i].ID < staffList[j].ID })

	loc := policy.Location()
	local := start.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		best         *models.Staff
		bestDur      time.Duration
		bestBoundary time.Time
		firstMiss    *models.SlotCheck
	)
	for i := range staffList {
		staff := &staffList[i]
		dur, check, err := e.VerifySlot(ctx, staff, services, clientID, start, 0, policy, now)
		if err != nil {
			return nil, 0, nil, err
		}
		if !check.Available {
			if firstMiss == nil {
				firstMiss = check
			}
			continue
		}

		booked, err := e.Bookings.ListOccupying(ctx, staff.ID, start.UTC(), dayEnd.UTC(), now)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to load agenda for staff %s: %w", staff.ID, err)
		}
		boundary := nextBoundary(occupiedRanges(booked), start, dayEnd)
		if best == nil || boundary.After(bestBoundary) {
			best = staff
			bestDur = dur
			bestBoundary = boundary
		}
	}

	if best == nil {
		if firstMiss == nil {
			firstMiss = &models.SlotCheck{Conflict: models.ConflictOutsideHours}
		}
		firstMiss.StaffID = ""
		return nil, 0, firstMiss, nil
	}
	return best, bestDur, &models.SlotCheck{Available: true, StaffID: best.ID}, nil
}
