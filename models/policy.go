package models

import "time"

// Policy is the effective write-path policy: config defaults merged with the
// persisted overrides document. It is a plain value passed to the policy
// gate, the availability engine, the state machine and the workers.
type Policy struct {
	HoldTTLMinutes        int    `json:"hold_ttl_minutes"`
	RescheduleLockHours   int    `json:"reschedule_lock_hours"`
	CancelLockHours       int    `json:"cancel_lock_hours"`
	LeadTimeMinutes       int    `json:"lead_time_minutes"`
	FutureWindowDays      int    `json:"future_window_days"`
	SlotGridMinutes       int    `json:"slot_grid_minutes"`
	OnlineDiscountPercent int    `json:"online_discount_percent"` // 0..100
	OnlineEnabled         bool   `json:"online_enabled"`
	RescheduleMaxCount    int    `json:"reschedule_max_count"`
	ReminderLeadMinutes   int    `json:"reminder_lead_minutes"` // 0 disables reminders
	BusinessTimezone      string `json:"business_timezone"`     // IANA name
	Currency              string `json:"currency"`              // ISO 4217
}

// HoldTTL returns the hold lifetime as a duration.
func (p Policy) HoldTTL() time.Duration {
	return time.Duration(p.HoldTTLMinutes) * time.Minute
}

// LeadTime returns the minimum distance between now and a bookable start.
func (p Policy) LeadTime() time.Duration {
	return time.Duration(p.LeadTimeMinutes) * time.Minute
}

// Horizon returns how far into the future starts may be booked.
func (p Policy) Horizon() time.Duration {
	return time.Duration(p.FutureWindowDays) * 24 * time.Hour
}

// Location resolves the business timezone, falling back to UTC on a bad name.
func (p Policy) Location() *time.Location {
	loc, err := time.LoadLocation(p.BusinessTimezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// PolicyOverrides is the single persisted overrides document. Nil fields
// inherit the configured default.
type PolicyOverrides struct {
	HoldTTLMinutes        *int  `bson:"hold_ttl_minutes,omitempty" json:"hold_ttl_minutes,omitempty"`
	RescheduleLockHours   *int  `bson:"reschedule_lock_hours,omitempty" json:"reschedule_lock_hours,omitempty"`
	CancelLockHours       *int  `bson:"cancel_lock_hours,omitempty" json:"cancel_lock_hours,omitempty"`
	LeadTimeMinutes       *int  `bson:"lead_time_minutes,omitempty" json:"lead_time_minutes,omitempty"`
	FutureWindowDays      *int  `bson:"future_window_days,omitempty" json:"future_window_days,omitempty"`
	SlotGridMinutes       *int  `bson:"slot_grid_minutes,omitempty" json:"slot_grid_minutes,omitempty"`
	OnlineDiscountPercent *int  `bson:"online_discount_percent,omitempty" json:"online_discount_percent,omitempty"`
	OnlineEnabled         *bool `bson:"online_enabled,omitempty" json:"online_enabled,omitempty"`
	RescheduleMaxCount    *int  `bson:"reschedule_max_count,omitempty" json:"reschedule_max_count,omitempty"`
	ReminderLeadMinutes   *int  `bson:"reminder_lead_minutes,omitempty" json:"reminder_lead_minutes,omitempty"`
}

// Apply merges the overrides onto the configured defaults and returns the
// effective policy.
func (o *PolicyOverrides) Apply(base Policy) Policy {
	if o == nil {
		return base
	}
	if o.HoldTTLMinutes != nil {
		base.HoldTTLMinutes = *o.HoldTTLMinutes
	}
	if o.RescheduleLockHours != nil {
		base.RescheduleLockHours = *o.RescheduleLockHours
	}
	if o.CancelLockHours != nil {
		base.CancelLockHours = *o.CancelLockHours
	}
	if o.LeadTimeMinutes != nil {
		base.LeadTimeMinutes = *o.LeadTimeMinutes
	}
	if o.FutureWindowDays != nil {
		base.FutureWindowDays = *o.FutureWindowDays
	}
	if o.SlotGridMinutes != nil {
		base.SlotGridMinutes = *o.SlotGridMinutes
	}
	if o.OnlineDiscountPercent != nil {
		base.OnlineDiscountPercent = *o.OnlineDiscountPercent
	}
	if o.OnlineEnabled != nil {
		base.OnlineEnabled = *o.OnlineEnabled
	}
	if o.RescheduleMaxCount != nil {
		base.RescheduleMaxCount = *o.RescheduleMaxCount
	}
	if o.ReminderLeadMinutes != nil {
		base.ReminderLeadMinutes = *o.ReminderLeadMinutes
	}
	return base
}
