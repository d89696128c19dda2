package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	"slotify/services/catalog"
	"slotify/services/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBookings serves the conflict scans from a slice; the embedded
// interface covers the repository methods the engine never calls.
type stubBookings struct {
	bookingRepo.Repository
	rows []models.Booking
}

func (s *stubBookings) overlap(span models.TimeRange, excludeID int64, now time.Time, match func(*models.Booking) bool) *models.Booking {
	for i := range s.rows {
		b := &s.rows[i]
		if b.ID == excludeID || !match(b) || !b.Occupies(now) {
			continue
		}
		if b.StartsAt.Before(span.End) && b.EndsAt.After(span.Start) {
			return b
		}
	}
	return nil
}

func (s *stubBookings) FindStaffConflict(ctx context.Context, staffID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	return s.overlap(span, excludeID, now, func(b *models.Booking) bool { return b.StaffID == staffID }), nil
}

func (s *stubBookings) FindClientConflict(ctx context.Context, clientID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	return s.overlap(span, excludeID, now, func(b *models.Booking) bool { return b.ClientID == clientID }), nil
}

func (s *stubBookings) ListOccupying(ctx context.Context, staffID string, from, to, now time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.rows {
		if b.StaffID == staffID && b.Occupies(now) && b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

type stubCatalog struct {
	catalog.Service
	services map[string]models.Service
	staff    map[string]models.Staff
}

func (c *stubCatalog) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	out := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		s, ok := c.services[id]
		if !ok {
			return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown service %s", id))
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *stubCatalog) GetStaffByID(ctx context.Context, id string) (*models.Staff, error) {
	s, ok := c.staff[id]
	if !ok {
		return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown staff %s", id))
	}
	return &s, nil
}

func (c *stubCatalog) EligibleStaff(ctx context.Context, services []models.Service) ([]models.Staff, error) {
	var out []models.Staff
	for _, st := range c.staff {
		if !st.Active {
			continue
		}
		ok := true
		for i := range services {
			if !st.CanPerform(&services[i]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		return nil, models.NewBookingError(models.CodeNoSkillMatch, "no staff member covers the requested services")
	}
	return out, nil
}

type stubSettings struct {
	settings.Service
	policy models.Policy
}

func (s *stubSettings) Current(ctx context.Context) (models.Policy, error) {
	return s.policy, nil
}

func enginePolicy() models.Policy {
	return models.Policy{
		HoldTTLMinutes:   10,
		LeadTimeMinutes:  60,
		FutureWindowDays: 30,
		SlotGridMinutes:  15,
		BusinessTimezone: "UTC",
		Currency:         "USD",
	}
}

// weekWindows opens the same window every weekday.
func weekWindows(startMinute, endMinute int) []models.WorkWindow {
	out := make([]models.WorkWindow, 0, 7)
	for wd := 0; wd < 7; wd++ {
		out = append(out, models.WorkWindow{Weekday: wd, StartMinute: startMinute, EndMinute: endMinute})
	}
	return out
}

func newEngine(rows []models.Booking, staff ...models.Staff) *DefaultAvailabilityEngine {
	cat := &stubCatalog{
		services: map[string]models.Service{
			"svc-cut": {ID: "svc-cut", Name: "Haircut", DurationMinutes: 60, PriceMinor: 3000, Currency: "USD", Visible: true},
		},
		staff: map[string]models.Staff{},
	}
	for _, st := range staff {
		cat.staff[st.ID] = st
	}
	return &DefaultAvailabilityEngine{
		Catalog:  cat,
		Bookings: &stubBookings{rows: rows},
		Settings: &stubSettings{policy: enginePolicy()},
	}
}

// dayAt returns a UTC instant on a fixed Tuesday used by the VerifySlot
// cases, which supply their own now.
func dayAt(hour, min int) time.Time {
	return time.Date(2026, 4, 7, hour, min, 0, 0, time.UTC)
}

func TestVerifySlotTags(t *testing.T) {
	// Tuesday window 9:00-18:00 with a 13:00-14:00 break.
	anna := models.Staff{
		ID: "staff-anna", DisplayName: "Anna", Active: true,
		Windows: []models.WorkWindow{{Weekday: 2, StartMinute: 9 * 60, EndMinute: 18 * 60}},
		Breaks:  []models.WorkWindow{{Weekday: 2, StartMinute: 13 * 60, EndMinute: 14 * 60}},
	}
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	liveHold := dayAt(16, 0)
	holdExpiry := now.Add(10 * time.Minute)
	lapsedExpiry := now.Add(-10 * time.Minute)

	rows := []models.Booking{
		{ID: 1, StaffID: "staff-anna", ClientID: "cli-1", StartsAt: dayAt(11, 0), EndsAt: dayAt(12, 0), Status: models.StatusConfirmed},
		{ID: 2, StaffID: "staff-bea", ClientID: "cli-2", StartsAt: dayAt(9, 0), EndsAt: dayAt(10, 0), Status: models.StatusConfirmed},
		{ID: 3, StaffID: "staff-anna", ClientID: "cli-3", StartsAt: liveHold, EndsAt: liveHold.Add(time.Hour), Status: models.StatusReserved, HoldExpiresAt: &holdExpiry},
		{ID: 4, StaffID: "staff-anna", ClientID: "cli-4", StartsAt: dayAt(17, 0), EndsAt: dayAt(18, 0), Status: models.StatusReserved, HoldExpiresAt: &lapsedExpiry},
	}
	engine := newEngine(rows, anna)
	services := []models.Service{{ID: "svc-cut", Name: "Haircut", DurationMinutes: 60, Currency: "USD"}}

	tests := []struct {
		name      string
		clientID  string
		start     time.Time
		now       time.Time
		excludeID int64
		available bool
		conflict  string
	}{
		{"open slot", "cli-9", dayAt(9, 15), now, 0, true, ""},
		{"before opening", "cli-9", dayAt(8, 0), now, 0, false, models.ConflictOutsideHours},
		{"after closing", "cli-9", dayAt(18, 0), now, 0, false, models.ConflictOutsideHours},
		{"runs past closing", "cli-9", dayAt(17, 30), now, 0, false, models.ConflictOutsideHours},
		{"day without windows", "cli-9", time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC), now, 0, false, models.ConflictOutsideHours},
		{"starts inside the break", "cli-9", dayAt(13, 0), now, 0, false, models.ConflictOutsideHours},
		{"runs into the break", "cli-9", dayAt(12, 30), now, 0, false, models.ConflictOutsideHours},
		{"grid anchors to the window", "cli-9", dayAt(14, 15), now, 0, true, ""},
		{"off grid", "cli-9", dayAt(10, 7), now, 0, false, models.ConflictOffGrid},
		{"inside lead time", "cli-9", dayAt(11, 0), dayAt(10, 30), 0, false, models.ConflictLeadTime},
		{"beyond horizon", "cli-9", dayAt(15, 0), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 0, false, models.ConflictBeyondHorizon},
		{"staff already booked", "cli-9", dayAt(11, 0), now, 0, false, models.ConflictStaffBusy},
		{"overlapping tail", "cli-9", dayAt(10, 15), now, 0, false, models.ConflictStaffBusy},
		{"live hold blocks", "cli-9", dayAt(16, 0), now, 0, false, models.ConflictStaffBusy},
		{"lapsed hold does not block", "cli-9", dayAt(17, 0), now, 0, true, ""},
		{"client double booking", "cli-2", dayAt(9, 15), now, 0, false, models.ConflictClientBusy},
		{"reschedule skips itself", "cli-1", dayAt(11, 30), now, 1, true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, check, err := engine.VerifySlot(context.Background(), &anna, services, tc.clientID, tc.start, tc.excludeID, enginePolicy(), tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.available, check.Available)
			assert.Equal(t, tc.conflict, check.Conflict)
		})
	}
}

func TestVerifySlotReturnsEffectiveDuration(t *testing.T) {
	anna := models.Staff{
		ID: "staff-anna", Active: true,
		Windows: weekWindows(9*60, 18*60),
		Speed:   map[string]float64{"svc-cut": 1.5},
	}
	engine := newEngine(nil, anna)
	services := []models.Service{{ID: "svc-cut", DurationMinutes: 60, Currency: "USD"}}

	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	dur, check, err := engine.VerifySlot(context.Background(), &anna, services, "cli-1", dayAt(10, 0), 0, enginePolicy(), now)
	require.NoError(t, err)
	assert.True(t, check.Available)
	assert.Equal(t, 90*time.Minute, dur)

	// The stretched span must fit too: 17:15 + 90m runs past closing.
	_, check, err = engine.VerifySlot(context.Background(), &anna, services, "cli-1", dayAt(17, 15), 0, enginePolicy(), now)
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Equal(t, models.ConflictOutsideHours, check.Conflict)
}

func TestSlotsWalksGridAroundBreaksAndBookings(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 3)
	at := func(hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
	}
	anna := models.Staff{
		ID: "staff-anna", DisplayName: "Anna", Active: true,
		Windows: weekWindows(9*60, 18*60),
		Breaks:  weekWindows(13*60, 14*60),
	}
	rows := []models.Booking{
		{ID: 1, StaffID: "staff-anna", ClientID: "cli-1", StartsAt: at(10, 0), EndsAt: at(11, 0), Status: models.StatusConfirmed},
	}
	engine := newEngine(rows, anna)

	res, err := engine.Slots(context.Background(), "staff-anna", day.Format("2006-01-02"), []string{"svc-cut"})
	require.NoError(t, err)
	// Work 9-13 and 14-18. The morning keeps 9:00 plus 11:00 through 12:00;
	// the afternoon keeps all thirteen grid starts.
	require.Len(t, res.Slots, 19)
	assert.Equal(t, at(9, 0), res.Slots[0].Start)
	assert.Equal(t, at(11, 0), res.Slots[1].Start)
	assert.Equal(t, at(17, 0), res.Slots[len(res.Slots)-1].Start)
	for _, s := range res.Slots {
		assert.Equal(t, "staff-anna", s.StaffID)
	}
	assert.Equal(t, "UTC", res.Timezone)

	// Unknown date shape is a caller error.
	_, err = engine.Slots(context.Background(), "staff-anna", "07-04-2026", []string{"svc-cut"})
	require.Error(t, err)
	assert.Equal(t, models.CodeBadInput, models.ErrCode(err))
}

func TestSlotsAnyStaffMergesCalendars(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 3)
	at := func(hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
	}
	anna := models.Staff{ID: "staff-anna", DisplayName: "Anna", Active: true, Windows: weekWindows(9*60, 12*60)}
	bea := models.Staff{ID: "staff-bea", DisplayName: "Bea", Active: true, Windows: weekWindows(13*60, 18*60)}
	engine := newEngine(nil, anna, bea)

	res, err := engine.Slots(context.Background(), "", day.Format("2006-01-02"), []string{"svc-cut"})
	require.NoError(t, err)
	// Nine morning starts from Anna, seventeen afternoon starts from Bea.
	require.Len(t, res.Slots, 26)
	assert.Equal(t, at(9, 0), res.Slots[0].Start)
	assert.Equal(t, "staff-anna", res.Slots[0].StaffID)
	assert.Equal(t, at(17, 0), res.Slots[len(res.Slots)-1].Start)
	assert.Equal(t, "staff-bea", res.Slots[len(res.Slots)-1].StaffID)
	for _, s := range res.Slots {
		if s.Start.Before(at(12, 30)) {
			assert.Equal(t, "staff-anna", s.StaffID, "morning belongs to Anna at %s", s.Start)
		} else {
			assert.Equal(t, "staff-bea", s.StaffID, "afternoon belongs to Bea at %s", s.Start)
		}
	}
}

func TestAnySlotsPreferRoomiestCalendar(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 3)
	at := func(hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
	}
	anna := models.Staff{ID: "staff-anna", DisplayName: "Anna", Active: true, Windows: weekWindows(9*60, 18*60)}
	bea := models.Staff{ID: "staff-bea", DisplayName: "Bea", Active: true, Windows: weekWindows(9*60, 18*60)}
	rows := []models.Booking{
		{ID: 1, StaffID: "staff-anna", ClientID: "cli-1", StartsAt: at(15, 0), EndsAt: at(16, 0), Status: models.StatusConfirmed},
	}
	engine := newEngine(rows, anna, bea)

	res, err := engine.Slots(context.Background(), "", day.Format("2006-01-02"), []string{"svc-cut"})
	require.NoError(t, err)

	byStart := map[string]string{}
	for _, s := range res.Slots {
		byStart[s.Start.Format("15:04")] = s.StaffID
	}
	// Anna's 15:00 booking caps her contiguous room for the whole morning,
	// so Bea's clear day wins every instant up to the booking.
	assert.Equal(t, "staff-bea", byStart["09:00"])
	assert.Equal(t, "staff-bea", byStart["14:00"])
	// Anna is busy at 15:00, so the instant itself exists only through Bea.
	assert.Equal(t, "staff-bea", byStart["15:00"])
	// Past the booking both days are clear again; the tie goes to the
	// lowest staff id.
	assert.Equal(t, "staff-anna", byStart["16:00"])
}

func TestAvailableDaysHonorsExceptionsAndFullDays(t *testing.T) {
	base := time.Now().UTC().AddDate(0, 2, 0)
	year, month := base.Year(), int(base.Month())
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()

	offDate := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
	fullDate := time.Date(year, time.Month(month), 20, 0, 0, 0, 0, time.UTC)

	anna := models.Staff{
		ID: "staff-anna", DisplayName: "Anna", Active: true,
		Windows: weekWindows(9*60, 18*60),
		Exceptions: []models.ScheduleException{
			{Date: offDate.Format("2006-01-02"), Off: true, Reason: "holiday"},
		},
	}
	rows := []models.Booking{
		{ID: 1, StaffID: "staff-anna", ClientID: "cli-1", StartsAt: fullDate.Add(9 * time.Hour), EndsAt: fullDate.Add(18 * time.Hour), Status: models.StatusConfirmed},
	}
	engine := newEngine(rows, anna)
	engine.Settings = &stubSettings{policy: func() models.Policy {
		p := enginePolicy()
		p.FutureWindowDays = 365
		return p
	}()}

	res, err := engine.AvailableDays(context.Background(), "staff-anna", year, month, []string{"svc-cut"})
	require.NoError(t, err)
	assert.Equal(t, year, res.Year)
	assert.Equal(t, month, res.Month)
	assert.Len(t, res.Days, daysInMonth-2, "the holiday and the fully booked day are closed")
	assert.NotContains(t, res.Days, 15)
	assert.NotContains(t, res.Days, 20)
	assert.Contains(t, res.Days, 14)

	_, err = engine.AvailableDays(context.Background(), "staff-anna", year, 13, []string{"svc-cut"})
	require.Error(t, err)
	assert.Equal(t, models.CodeBadInput, models.ErrCode(err))
}

func TestExceptionWindowsReplaceTheWeekday(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 3)
	at := func(hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
	}
	anna := models.Staff{
		ID: "staff-anna", DisplayName: "Anna", Active: true,
		Windows: weekWindows(9*60, 18*60),
		Exceptions: []models.ScheduleException{
			{Date: day.Format("2006-01-02"), Windows: []models.ClockSpan{{StartMinute: 10 * 60, EndMinute: 12 * 60}}},
		},
	}
	engine := newEngine(nil, anna)

	res, err := engine.Slots(context.Background(), "staff-anna", day.Format("2006-01-02"), []string{"svc-cut"})
	require.NoError(t, err)
	// Only the exception window counts: 10:00 through 11:00.
	require.Len(t, res.Slots, 5)
	assert.Equal(t, at(10, 0), res.Slots[0].Start)
	assert.Equal(t, at(11, 0), res.Slots[len(res.Slots)-1].Start)
}

func TestCheckSlotPicksStaffInAnyMode(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 3)
	start := time.Date(day.Year(), day.Month(), day.Day(), 11, 0, 0, 0, time.UTC)
	anna := models.Staff{ID: "staff-anna", DisplayName: "Anna", Active: true, Windows: weekWindows(9*60, 18*60)}
	bea := models.Staff{ID: "staff-bea", DisplayName: "Bea", Active: true, Windows: weekWindows(9*60, 18*60)}
	rows := []models.Booking{
		{ID: 1, StaffID: "staff-anna", ClientID: "cli-1", StartsAt: start, EndsAt: start.Add(time.Hour), Status: models.StatusConfirmed},
	}
	engine := newEngine(rows, anna, bea)
	ctx := context.Background()

	check, err := engine.CheckSlot(ctx, "", "cli-9", start, []string{"svc-cut"})
	require.NoError(t, err)
	assert.True(t, check.Available)
	assert.Equal(t, "staff-bea", check.StaffID, "the busy staff member is skipped")

	check, err = engine.CheckSlot(ctx, "staff-anna", "cli-9", start, []string{"svc-cut"})
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Equal(t, models.ConflictStaffBusy, check.Conflict)

	// Nobody can host the instant: the first failure in id order is reported.
	check, err = engine.CheckSlot(ctx, "", "cli-9", start.Add(10*time.Hour), []string{"svc-cut"})
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Equal(t, models.ConflictOutsideHours, check.Conflict)
	assert.Empty(t, check.StaffID)
}
