package models

import "time"

// TimeRange is a half-open UTC interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether o lies entirely inside r.
func (r TimeRange) Contains(o TimeRange) bool {
	return !o.Start.Before(r.Start) && !o.End.After(r.End)
}

// SlotOption is one bookable start offered to a client. StaffID identifies
// the staff member chosen for the instant (relevant in any-staff mode).
type SlotOption struct {
	Start   time.Time `json:"start"`
	StaffID string    `json:"staff_id"`
}

// DayAvailability is the AvailableDays response body.
type DayAvailability struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Days     []int  `json:"days"`
	Timezone string `json:"timezone"`
}

// SlotAvailability is the Slots response body.
type SlotAvailability struct {
	Date     string       `json:"date"`
	Slots    []SlotOption `json:"slots"`
	Timezone string       `json:"timezone"`
}

// SlotCheck is the CheckSlot result. Conflict is empty when Available;
// StaffID reports the staff member picked in any-staff mode.
type SlotCheck struct {
	Available bool   `json:"available"`
	Conflict  string `json:"conflict,omitempty"` // staff_busy | client_busy | lead_time | beyond_horizon | outside_hours | off_grid
	StaffID   string `json:"staff_id,omitempty"`
}

// Conflict tags returned by CheckSlot and carried on SlotUnavailable errors.
const (
	ConflictStaffBusy     = "staff_busy"
	ConflictClientBusy    = "client_busy"
	ConflictLeadTime      = "lead_time"
	ConflictBeyondHorizon = "beyond_horizon"
	ConflictOutsideHours  = "outside_hours"
	ConflictOffGrid       = "off_grid"
)

// BookingView is the fully materialized read model for booking lists; no
// lazy traversal across aggregates.
type BookingView struct {
	ID            int64           `json:"id"`
	StaffID       string          `json:"staff_id"`
	StaffName     string          `json:"staff_name"`
	ServiceIDs    []string        `json:"service_ids"`
	ServiceNames  []string        `json:"service_names"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	Status        BookingStatus   `json:"status"`
	Pricing       PricingSnapshot `json:"pricing"`
	HoldExpiresAt *time.Time      `json:"hold_expires_at,omitempty"`
	InvoiceURL    string          `json:"invoice_url,omitempty"`
	Rating        *int            `json:"rating,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
}

// ListBookings modes.
const (
	ListModeUpcoming = "upcoming"
	ListModeHistory  = "history"
)
