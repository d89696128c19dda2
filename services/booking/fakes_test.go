package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	"slotify/services/availability"
	"slotify/services/events"
	"slotify/services/payments"
	"slotify/services/pricing"
)

// memRepo is an in-memory stand-in for the mongo booking repository. The
// mutex plays the role of the session transaction: conflict re-checks and
// the write happen atomically underneath it, so the CAS and overlap
// semantics match the real store.
type memRepo struct {
	mu   sync.Mutex
	rows map[int64]*models.Booking
	log  []models.BookingEvent
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*models.Booking{}}
}

// put seeds one row directly, bypassing the hold protocol.
func (r *memRepo) put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := b
	r.rows[b.ID] = &cp
}

// setHoldExpiry backdates a hold so expiry paths can run without sleeping.
func (r *memRepo) setHoldExpiry(id int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.rows[id]; ok {
		t := at
		b.HoldExpiresAt = &t
	}
}

func (r *memRepo) row(id int64) (models.Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return models.Booking{}, false
	}
	return *b, true
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func staffOf(b *models.Booking) string  { return b.StaffID }
func clientOf(b *models.Booking) string { return b.ClientID }

func (r *memRepo) conflictLocked(owner func(*models.Booking) string, ownerID string, span models.TimeRange, excludeID int64, now time.Time) *models.Booking {
	for _, b := range r.rows {
		if b.ID == excludeID || owner(b) != ownerID || !b.Occupies(now) {
			continue
		}
		if b.StartsAt.Before(span.End) && b.EndsAt.After(span.Start) {
			cp := *b
			return &cp
		}
	}
	return nil
}

func (r *memRepo) FindStaffConflict(ctx context.Context, staffID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictLocked(staffOf, staffID, span, excludeID, now), nil
}

func (r *memRepo) FindClientConflict(ctx context.Context, clientID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictLocked(clientOf, clientID, span, excludeID, now), nil
}

func (r *memRepo) ListOccupying(ctx context.Context, staffID string, from, to, now time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.StaffID != staffID || !b.Occupies(now) {
			continue
		}
		if b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *memRepo) CreateHold(ctx context.Context, booking *models.Booking, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := models.TimeRange{Start: booking.StartsAt, End: booking.EndsAt}
	if c := r.conflictLocked(staffOf, booking.StaffID, span, 0, now); c != nil {
		return bookingRepo.ErrStaffConflict
	}
	if c := r.conflictLocked(clientOf, booking.ClientID, span, 0, now); c != nil {
		return bookingRepo.ErrClientConflict
	}
	cp := *booking
	r.rows[booking.ID] = &cp
	r.log = append(r.log, models.BookingEvent{BookingID: booking.ID, To: models.StatusReserved, Actor: "client", At: now})
	return nil
}

func (r *memRepo) Reschedule(ctx context.Context, id int64, span models.TimeRange, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if c := r.conflictLocked(staffOf, b.StaffID, span, id, now); c != nil {
		return nil, bookingRepo.ErrStaffConflict
	}
	if c := r.conflictLocked(clientOf, b.ClientID, span, id, now); c != nil {
		return nil, bookingRepo.ErrClientConflict
	}
	b.StartsAt = span.Start
	b.EndsAt = span.End
	b.RescheduleCount++
	b.ReminderSentAt = nil
	r.log = append(r.log, models.BookingEvent{BookingID: id, From: b.Status, To: b.Status, Reason: "rescheduled", Actor: "client", At: now})
	cp := *b
	return &cp, nil
}

func (r *memRepo) transition(id int64, from []models.BookingStatus, mutate func(*models.Booking), reason, actor string, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	eligible := false
	for _, s := range from {
		if b.Status == s {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, bookingRepo.ErrNoTransition
	}
	prev := b.Status
	mutate(b)
	r.log = append(r.log, models.BookingEvent{BookingID: id, From: prev, To: b.Status, Reason: reason, Actor: actor, At: now})
	cp := *b
	return &cp, nil
}

func (r *memRepo) ConfirmCash(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error) {
	return r.transition(id, []models.BookingStatus{models.StatusReserved}, func(b *models.Booking) {
		b.Status = models.StatusConfirmed
		t := now
		b.ConfirmedAt = &t
		b.HoldExpiresAt = nil
	}, models.PaymentCash, actor, now)
}

func (r *memRepo) MarkPendingPayment(ctx context.Context, id int64, invoiceRef, invoiceURL, actor string, now time.Time) (*models.Booking, error) {
	return r.transition(id, []models.BookingStatus{models.StatusReserved}, func(b *models.Booking) {
		b.Status = models.StatusPendingPayment
		b.InvoiceRef = invoiceRef
		b.InvoiceURL = invoiceURL
		t := now
		b.InvoiceIssuedAt = &t
	}, models.PaymentOnline, actor, now)
}

func (r *memRepo) MarkPaid(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error) {
	return r.transition(id, []models.BookingStatus{models.StatusPendingPayment}, func(b *models.Booking) {
		b.Status = models.StatusPaid
		t := now
		b.PaidAt = &t
		b.HoldExpiresAt = nil
	}, "payment_verified", actor, now)
}

func (r *memRepo) Finish(ctx context.Context, id int64, to models.BookingStatus, actor string, now time.Time) (*models.Booking, error) {
	if to != models.StatusDone && to != models.StatusNoShow {
		return nil, bookingRepo.ErrNoTransition
	}
	return r.transition(id, []models.BookingStatus{models.StatusConfirmed, models.StatusPaid}, func(b *models.Booking) {
		b.Status = to
		t := now
		b.FinishedAt = &t
	}, "", actor, now)
}

func (r *memRepo) Cancel(ctx context.Context, id int64, to models.BookingStatus, reason, actor string, now time.Time) (*models.Booking, error) {
	if to != models.StatusCancelled && to != models.StatusExpired {
		return nil, bookingRepo.ErrNoTransition
	}
	from := []models.BookingStatus{
		models.StatusReserved, models.StatusPendingPayment,
		models.StatusConfirmed, models.StatusPaid,
	}
	if to == models.StatusExpired {
		from = []models.BookingStatus{models.StatusReserved, models.StatusPendingPayment}
	}
	return r.transition(id, from, func(b *models.Booking) {
		b.Status = to
		t := now
		b.CancelledAt = &t
		b.CancelReason = reason
		b.HoldExpiresAt = nil
	}, reason, actor, now)
}

func (r *memRepo) SetRating(ctx context.Context, id int64, rating int, comment string, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != models.StatusDone {
		return nil, bookingRepo.ErrNoTransition
	}
	if b.Rating != nil {
		return nil, bookingRepo.ErrAlreadyRated
	}
	v := rating
	b.Rating = &v
	b.RatingComment = comment
	cp := *b
	return &cp, nil
}

func (r *memRepo) MarkReminderSent(ctx context.Context, id int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	if b.Status != models.StatusConfirmed && b.Status != models.StatusPaid {
		return false, nil
	}
	if b.ReminderSentAt != nil {
		return false, nil
	}
	t := now
	b.ReminderSentAt = &t
	return true, nil
}

func (r *memRepo) DueHolds(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.Status != models.StatusReserved && b.Status != models.StatusPendingPayment {
			continue
		}
		if b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoldExpiresAt.Before(*out[j].HoldExpiresAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) DueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.Status != models.StatusConfirmed && b.Status != models.StatusPaid {
			continue
		}
		if b.ReminderSentAt != nil {
			continue
		}
		if b.StartsAt.After(now) && !b.StartsAt.After(now.Add(lead)) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) PendingPayments(ctx context.Context, issuedBefore time.Time, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.Status != models.StatusPendingPayment {
			continue
		}
		if b.InvoiceIssuedAt != nil && !b.InvoiceIssuedAt.After(issuedBefore) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceIssuedAt.Before(*out[j].InvoiceIssuedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListByClient(ctx context.Context, clientID, mode string, now time.Time, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := map[models.BookingStatus]bool{
		models.StatusReserved: true, models.StatusPendingPayment: true,
		models.StatusConfirmed: true, models.StatusPaid: true,
	}
	var out []models.Booking
	for _, b := range r.rows {
		if b.ClientID != clientID {
			continue
		}
		upcoming := live[b.Status] && !b.StartsAt.Before(now)
		if (mode == models.ListModeUpcoming) == upcoming {
			out = append(out, *b)
		}
	}
	if mode == models.ListModeUpcoming {
		sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListEvents(ctx context.Context, bookingID int64) ([]models.BookingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookingEvent
	for _, ev := range r.log {
		if ev.BookingID == bookingID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// seqFake hands out ids from a process-local counter.
type seqFake struct{ n atomic.Int64 }

func (s *seqFake) Next(ctx context.Context, name string) (int64, error) {
	return s.n.Add(1), nil
}

// catalogFake is a map-backed catalog with the same visibility semantics as
// the real service: lists return visible/active entries only, id lookups
// resolve hidden ones too.
type catalogFake struct {
	mu       sync.Mutex
	services map[string]models.Service
	staff    map[string]models.Staff
}

func newCatalogFake() *catalogFake {
	return &catalogFake{services: map[string]models.Service{}, staff: map[string]models.Staff{}}
}

func (c *catalogFake) addService(svc models.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[svc.ID] = svc
}

func (c *catalogFake) addStaff(st models.Staff) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staff[st.ID] = st
}

func (c *catalogFake) ListServices(ctx context.Context) ([]models.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Service
	for _, svc := range c.services {
		if svc.Visible {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (c *catalogFake) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, models.NewBookingError(models.CodeBadInput, "at least one service id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := c.services[id]
		if !ok {
			return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown service %s", id))
		}
		out = append(out, svc)
	}
	return out, nil
}

func (c *catalogFake) ListStaff(ctx context.Context) ([]models.Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Staff
	for _, st := range c.staff {
		if st.Active {
			out = append(out, st)
		}
	}
	return out, nil
}

func (c *catalogFake) GetStaffByID(ctx context.Context, id string) (*models.Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.staff[id]
	if !ok {
		return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown staff %s", id))
	}
	cp := st
	return &cp, nil
}

func (c *catalogFake) EligibleStaff(ctx context.Context, services []models.Service) ([]models.Staff, error) {
	list, _ := c.ListStaff(ctx)
	var eligible []models.Staff
	for _, st := range list {
		qualified := true
		for i := range services {
			if !st.CanPerform(&services[i]) {
				qualified = false
				break
			}
		}
		if qualified {
			eligible = append(eligible, st)
		}
	}
	if len(eligible) == 0 {
		return nil, models.NewBookingError(models.CodeNoSkillMatch, "no staff member covers the requested services")
	}
	return eligible, nil
}

func (c *catalogFake) CreateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	c.addService(*svc)
	return svc, nil
}

func (c *catalogFake) CreateStaff(ctx context.Context, st *models.Staff) (*models.Staff, error) {
	c.addStaff(*st)
	return st, nil
}

func (c *catalogFake) Invalidate() {}

// settingsFake serves a mutable in-memory policy.
type settingsFake struct {
	mu     sync.Mutex
	policy models.Policy
}

func (s *settingsFake) Current(ctx context.Context) (models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy, nil
}

func (s *settingsFake) Update(ctx context.Context, o *models.PolicyOverrides) (models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = o.Apply(s.policy)
	return s.policy, nil
}

func (s *settingsFake) Invalidate() {}

func (s *settingsFake) set(mutate func(*models.Policy)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.policy)
}

// invoiceCall records one CreateInvoice ask.
type invoiceCall struct {
	bookingID   int64
	amountMinor int64
	currency    string
}

// paymentsFake scripts the gateway: invoices succeed unless failInit is set,
// and VerifyPayment returns whatever verdict the test scripted last.
type paymentsFake struct {
	mu       sync.Mutex
	verdict  payments.Verdict
	invoices []invoiceCall
	failInit bool
}

func newPaymentsFake() *paymentsFake {
	return &paymentsFake{verdict: payments.VerdictPending}
}

func (p *paymentsFake) CreateInvoice(ctx context.Context, bookingID int64, amountMinor int64, currency string) (*payments.Invoice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failInit {
		return nil, models.NewBookingError(models.CodePaymentInitFailed, "could not reach the payment gateway")
	}
	p.invoices = append(p.invoices, invoiceCall{bookingID: bookingID, amountMinor: amountMinor, currency: currency})
	return &payments.Invoice{
		Ref: fmt.Sprintf("inv_%d", bookingID),
		URL: fmt.Sprintf("https://pay.example.test/i/%d", bookingID),
	}, nil
}

func (p *paymentsFake) VerifyPayment(ctx context.Context, invoiceRef string) (payments.Verdict, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verdict, nil
}

func (p *paymentsFake) setVerdict(v payments.Verdict) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdict = v
}

func (p *paymentsFake) calls() []invoiceCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]invoiceCall, len(p.invoices))
	copy(out, p.invoices)
	return out
}

// noopLocker skips the advisory lock; the repo conflict re-check is the
// authority under test.
type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, staffID string, span models.TimeRange) (func(), error) {
	return func() {}, nil
}

// fixture wires a machine over the fakes, with the real availability and
// pricing engines and a real bus feeding a test channel.
type fixture struct {
	machine  *DefaultBookingMachine
	engine   *availability.DefaultAvailabilityEngine
	repo     *memRepo
	catalog  *catalogFake
	settings *settingsFake
	payments *paymentsFake
	bus      *events.Bus
	eventsCh <-chan models.Event
}

func fixturePolicy() models.Policy {
	return models.Policy{
		HoldTTLMinutes:        10,
		RescheduleLockHours:   3,
		CancelLockHours:       3,
		LeadTimeMinutes:       60,
		FutureWindowDays:      30,
		SlotGridMinutes:       15,
		OnlineDiscountPercent: 10,
		OnlineEnabled:         true,
		RescheduleMaxCount:    2,
		ReminderLeadMinutes:   60,
		BusinessTimezone:      "UTC",
		Currency:              "USD",
	}
}

// allWeekWindows opens the same daily window on all seven weekdays, so the
// fixture works no matter which day the tests run.
func allWeekWindows(startMinute, endMinute int) []models.WorkWindow {
	windows := make([]models.WorkWindow, 0, 7)
	for wd := 0; wd < 7; wd++ {
		windows = append(windows, models.WorkWindow{Weekday: wd, StartMinute: startMinute, EndMinute: endMinute})
	}
	return windows
}

// futureAt returns a UTC instant three days out at the given wall time,
// comfortably past the lead time and inside the booking horizon.
func futureAt(hour, min int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 3)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.UTC)
}

func newFixture() *fixture {
	repo := newMemRepo()
	cat := newCatalogFake()
	set := &settingsFake{policy: fixturePolicy()}
	pay := newPaymentsFake()
	bus := events.NewBus()
	ch := bus.Subscribe("test", 256)

	cat.addService(models.Service{
		ID: "svc-cut", Name: "Haircut", DurationMinutes: 60,
		PriceMinor: 3000, Currency: "USD", Visible: true,
	})
	cat.addService(models.Service{
		ID: "svc-color", Name: "Color", DurationMinutes: 90,
		PriceMinor: 4500, Currency: "USD", Skills: []string{"color"}, Visible: true,
	})
	cat.addStaff(models.Staff{
		ID: "staff-anna", DisplayName: "Anna", Active: true,
		Skills:  []string{"color"},
		Windows: allWeekWindows(9*60, 18*60),
	})
	cat.addStaff(models.Staff{
		ID: "staff-bea", DisplayName: "Bea", Active: true,
		Windows: allWeekWindows(9*60, 18*60),
	})

	engine := &availability.DefaultAvailabilityEngine{Catalog: cat, Bookings: repo, Settings: set}
	machine := &DefaultBookingMachine{
		Repo:     repo,
		Seq:      &seqFake{},
		Catalog:  cat,
		Engine:   engine,
		Pricing:  &pricing.DefaultPricingEngine{Catalog: cat, Settings: set},
		Settings: set,
		Payments: pay,
		Locks:    noopLocker{},
		Bus:      bus,
	}

	return &fixture{
		machine:  machine,
		engine:   engine,
		repo:     repo,
		catalog:  cat,
		settings: set,
		payments: pay,
		bus:      bus,
		eventsCh: ch,
	}
}

// drainEvents empties the test subscriber buffer. Publish writes into the
// buffered channel before returning, so everything published by a completed
// call is already here.
func (f *fixture) drainEvents() []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-f.eventsCh:
			out = append(out, ev)
		default:
			return out
		}
	}
}
