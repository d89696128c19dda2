package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	"slotify/services/catalog"
	policyGate "slotify/services/policy"
	"slotify/services/settings"
)

// Engine computes legal start times from the staff calendar and the booking
// footprint. Read-only over the store snapshot at call time; the state
// machine re-verifies under its lock before writing.
type Engine interface {
	// AvailableDays lists the days of one month with at least one open slot.
	AvailableDays(ctx context.Context, staffID string, year, month int, serviceIDs []string) (*models.DayAvailability, error)

	// Slots enumerates the legal starts for one local date. An empty staffID
	// selects any-staff mode: each instant carries the chosen staff member.
	Slots(ctx context.Context, staffID, localDate string, serviceIDs []string) (*models.SlotAvailability, error)

	// CheckSlot re-validates a single proposed start.
	CheckSlot(ctx context.Context, staffID, clientID string, start time.Time, serviceIDs []string) (*models.SlotCheck, error)

	// VerifySlot runs the slot legality checks for one staff member against a
	// caller-supplied policy snapshot and returns the effective duration.
	// excludeID skips one booking in the conflict scans so a reschedule does
	// not collide with itself.
	VerifySlot(ctx context.Context, staff *models.Staff, services []models.Service, clientID string, start time.Time, excludeID int64, policy models.Policy, now time.Time) (time.Duration, *models.SlotCheck, error)

	// PickStaff chooses the staff member for an any-staff booking at the
	// given start, or reports why none is free.
	PickStaff(ctx context.Context, services []models.Service, clientID string, start time.Time, policy models.Policy, now time.Time) (*models.Staff, time.Duration, *models.SlotCheck, error)
}

type DefaultAvailabilityEngine struct {
	Catalog  catalog.Service
	Bookings bookingRepo.Repository
	Settings settings.Service
}

func parseLocalDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
	}
	return t, nil
}

// resolveStaff returns the requested staff member, or every eligible one in
// any-staff mode, verifying skill coverage either way.
func (e *DefaultAvailabilityEngine) resolveStaff(ctx context.Context, staffID string, services []models.Service) ([]models.Staff, error) {
	if staffID == "" {
		return e.Catalog.EligibleStaff(ctx, services)
	}
	st, err := e.Catalog.GetStaffByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, models.NewBookingError(models.CodeNoSkillMatch, fmt.Sprintf("staff %s is not taking bookings", staffID))
	}
	for i := range services {
		if !st.CanPerform(&services[i]) {
			return nil, models.NewBookingError(models.CodeNoSkillMatch,
				fmt.Sprintf("staff %s does not offer %s", staffID, services[i].Name))
		}
	}
	return []models.Staff{*st}, nil
}

// staffDayStarts computes the legal starts for one staff member on one local
// day, returning the occupied intervals alongside for tie-breaking.
func (e *DefaultAvailabilityEngine) staffDayStarts(ctx context.Context, staff *models.Staff, services []models.Service, dayStart time.Time, policy models.Policy, now time.Time) ([]time.Time, []models.TimeRange, error) {
	work := workRanges(staff, dayStart)
	if len(work) == 0 {
		return nil, nil, nil
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	booked, err := e.Bookings.ListOccupying(ctx, staff.ID, dayStart.UTC(), dayEnd.UTC(), now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load agenda for staff %s: %w", staff.ID, err)
	}
	occ := occupiedRanges(booked)
	dur := time.Duration(models.EffectiveDurationMinutes(services, staff)) * time.Minute
	return dayStarts(work, occ, dur, policy, now), occ, nil
}

func (e *DefaultAvailabilityEngine) Slots(ctx context.Context, staffID, localDate string, serviceIDs []string) (*models.SlotAvailability, error) {
	policy, err := e.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	services, err := e.Catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	dayStart, err := parseLocalDate(localDate, policy.Location())
	if err != nil {
		return nil, err
	}
	staffList, err := e.resolveStaff(ctx, staffID, services)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	slots := []models.SlotOption{}
	if staffID != "" {
		starts, _, err := e.staffDayStarts(ctx, &staffList[0], services, dayStart, policy, now)
		if err != nil {
			return nil, err
		}
		for _, t := range starts {
			slots = append(slots, models.SlotOption{Start: t.UTC(), StaffID: staffID})
		}
	} else {
		slots, err = e.anySlots(ctx, staffList, services, dayStart, policy, now)
		if err != nil {
			return nil, err
		}
	}

	return &models.SlotAvailability{
		Date:     localDate,
		Slots:    slots,
		Timezone: policy.BusinessTimezone,
	}, nil
}

func (e *DefaultAvailabilityEngine) AvailableDays(ctx context.Context, staffID string, year, month int, serviceIDs []string) (*models.DayAvailability, error) {
	if month < 1 || month > 12 {
		return nil, models.NewBookingError(models.CodeBadInput, "month must be in 1..12")
	}
	if year < 2000 || year > 2200 {
		return nil, models.NewBookingError(models.CodeBadInput, "year is out of range")
	}
	policy, err := e.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	services, err := e.Catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	staffList, err := e.resolveStaff(ctx, staffID, services)
	if err != nil {
		return nil, err
	}

	loc := policy.Location()
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	now := time.Now().UTC()

	open := make(map[int]bool)
	for i := range staffList {
		staff := &staffList[i]

		// One agenda fetch per staff covers the whole month.
		booked, err := e.Bookings.ListOccupying(ctx, staff.ID, monthStart.UTC(), monthEnd.UTC(), now)
		if err != nil {
			return nil, fmt.Errorf("failed to load agenda for staff %s: %w", staff.ID, err)
		}
		occ := occupiedRanges(booked)
		dur := time.Duration(models.EffectiveDurationMinutes(services, staff)) * time.Minute

		for d := monthStart; d.Before(monthEnd); d = d.AddDate(0, 0, 1) {
			if open[d.Day()] {
				continue
			}
			if starts := dayStarts(workRanges(staff, d), occ, dur, policy, now); len(starts) > 0 {
				open[d.Day()] = true
			}
		}
	}

	days := make([]int, 0, len(open))
	for d := range open {
		days = append(days, d)
	}
	sort.Ints(days)

	return &models.DayAvailability{
		Year:     year,
		Month:    month,
		Days:     days,
		Timezone: policy.BusinessTimezone,
	}, nil
}

func (e *DefaultAvailabilityEngine) CheckSlot(ctx context.Context, staffID, clientID string, start time.Time, serviceIDs []string) (*models.SlotCheck, error) {
	policy, err := e.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	services, err := e.Catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if staffID == "" {
		_, _, check, err := e.PickStaff(ctx, services, clientID, start, policy, now)
		return check, err
	}
	staffList, err := e.resolveStaff(ctx, staffID, services)
	if err != nil {
		return nil, err
	}
	_, check, err := e.VerifySlot(ctx, &staffList[0], services, clientID, start, 0, policy, now)
	return check, err
}

func (e *DefaultAvailabilityEngine) VerifySlot(ctx context.Context, staff *models.Staff, services []models.Service, clientID string, start time.Time, excludeID int64, policy models.Policy, now time.Time) (time.Duration, *models.SlotCheck, error) {
	dur := time.Duration(models.EffectiveDurationMinutes(services, staff)) * time.Minute
	span := models.TimeRange{Start: start, End: start.Add(dur)}

	loc := policy.Location()
	local := start.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	work := workRanges(staff, dayStart)

	// 1. Shape: the whole span inside one working interval, start on the grid.
	var host *models.TimeRange
	for i := range work {
		if work[i].Contains(span) {
			host = &work[i]
			break
		}
	}
	if host == nil {
		return dur, &models.SlotCheck{Conflict: models.ConflictOutsideHours, StaffID: staff.ID}, nil
	}
	grid := time.Duration(policy.SlotGridMinutes) * time.Minute
	if grid > 0 && start.Sub(host.Start)%grid != 0 {
		return dur, &models.SlotCheck{Conflict: models.ConflictOffGrid, StaffID: staff.ID}, nil
	}

	// 2. Policy window.
	if err := policyGate.CanStart(policy, now, start); err != nil {
		switch models.ErrCode(err) {
		case models.CodeLeadTimeBlocked:
			return dur, &models.SlotCheck{Conflict: models.ConflictLeadTime, StaffID: staff.ID}, nil
		case models.CodeBeyondHorizon:
			return dur, &models.SlotCheck{Conflict: models.ConflictBeyondHorizon, StaffID: staff.ID}, nil
		}
		return dur, nil, err
	}

	// 3. Booking footprint, both calendars.
	conflict, err := e.Bookings.FindStaffConflict(ctx, staff.ID, span, excludeID, now)
	if err != nil {
		return dur, nil, err
	}
	if conflict != nil {
		return dur, &models.SlotCheck{Conflict: models.ConflictStaffBusy, StaffID: staff.ID}, nil
	}
	if clientID != "" {
		conflict, err = e.Bookings.FindClientConflict(ctx, clientID, span, excludeID, now)
		if err != nil {
			return dur, nil, err
		}
		if conflict != nil {
			return dur, &models.SlotCheck{Conflict: models.ConflictClientBusy, StaffID: staff.ID}, nil
		}
	}

	return dur, &models.SlotCheck{Available: true, StaffID: staff.ID}, nil
}
