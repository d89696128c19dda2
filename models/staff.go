package models

import (
	"math"
	"time"
)

// WorkWindow is a half-open [start, end) span on one weekday, in minutes
// from local midnight. Weekday follows time.Weekday numbering (Sunday = 0).
type WorkWindow struct {
	Weekday     int `bson:"weekday" json:"weekday"`
	StartMinute int `bson:"start_minute" json:"start_minute"`
	EndMinute   int `bson:"end_minute" json:"end_minute"`
}

// ClockSpan is a half-open [start, end) span in minutes from local midnight.
type ClockSpan struct {
	StartMinute int `bson:"start_minute" json:"start_minute"`
	EndMinute   int `bson:"end_minute" json:"end_minute"`
}

// ScheduleException replaces the weekly windows of one staff member for one
// local date. Off (or an empty window list) marks the whole day off.
type ScheduleException struct {
	Date    string      `bson:"date" json:"date"` // "2006-01-02" in the business timezone
	Off     bool        `bson:"off" json:"off"`
	Windows []ClockSpan `bson:"windows,omitempty" json:"windows,omitempty"`
	Reason  string      `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Staff is a bookable staff member. Windows within a weekday are disjoint;
// breaks are subsets of windows.
type Staff struct {
	ID          string              `bson:"id" json:"id"` // Unique staff identifier (UUID)
	DisplayName string              `bson:"display_name" json:"display_name"`
	Skills      []string            `bson:"skills" json:"skills"`
	Windows     []WorkWindow        `bson:"windows" json:"windows"`
	Breaks      []WorkWindow        `bson:"breaks,omitempty" json:"breaks,omitempty"`
	Exceptions  []ScheduleException `bson:"exceptions,omitempty" json:"exceptions,omitempty"`
	Speed       map[string]float64  `bson:"speed,omitempty" json:"speed,omitempty"` // serviceID -> multiplier, 1.0 when absent
	Active      bool                `bson:"active" json:"active"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}

// SpeedFor returns the speed multiplier the staff member applies to a
// service. Unset or non-positive entries fall back to 1.0.
func (s *Staff) SpeedFor(serviceID string) float64 {
	if s.Speed == nil {
		return 1.0
	}
	v, ok := s.Speed[serviceID]
	if !ok || v <= 0 {
		return 1.0
	}
	return v
}

// EffectiveDurationMinutes is the bundle duration on one staff member:
// per-service duration scaled by the staff speed factor, rounded to the
// minute, then summed. A nil staff prices at nominal speed.
func EffectiveDurationMinutes(services []Service, staff *Staff) int {
	total := 0
	for i := range services {
		speed := 1.0
		if staff != nil {
			speed = staff.SpeedFor(services[i].ID)
		}
		total += int(math.Round(float64(services[i].DurationMinutes) * speed))
	}
	return total
}

// CanPerform reports whether the staff member's skills cover every skill the
// service requires.
func (s *Staff) CanPerform(svc *Service) bool {
	if len(svc.Skills) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(s.Skills))
	for _, sk := range s.Skills {
		have[sk] = struct{}{}
	}
	for _, need := range svc.Skills {
		if _, ok := have[need]; !ok {
			return false
		}
	}
	return true
}
