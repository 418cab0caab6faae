package availability

import (
	"time"

	"github.com/google/uuid"
)

// RecurrencePattern describes how an availability definition repeats.
type RecurrencePattern string

const (
	RecurrenceNone     RecurrencePattern = "none"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	// RecurrenceMonthly is a fixed 4-week step, not calendar-month aware.
	RecurrenceMonthly RecurrencePattern = "monthly"
)

func (p RecurrencePattern) IsValid() bool {
	switch p {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// IntervalDays returns the day step between occurrences, 0 for none.
func (p RecurrencePattern) IntervalDays() int {
	switch p {
	case RecurrenceWeekly:
		return 7
	case RecurrenceBiweekly:
		return 14
	case RecurrenceMonthly:
		return 28
	}
	return 0
}

// WorkingHours is a doctor's working window for one day, "HH:MM" 24h clock.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeSlot is a fixed-duration bookable interval. Slots are rows of their
// own so a reservation can be a single conditional UPDATE.
type TimeSlot struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DayID uuid.UUID `gorm:"column:day_id;type:uuid;not null;index;uniqueIndex:idx_slots_day_start" json:"-"`

	StartTime time.Time `gorm:"column:start_time;not null;uniqueIndex:idx_slots_day_start" json:"start"`
	EndTime   time.Time `gorm:"column:end_time;not null" json:"end"`

	IsBooked      bool       `gorm:"column:is_booked;not null;default:false;index" json:"is_booked"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index" json:"appointment_id,omitempty"`
}

func (TimeSlot) TableName() string {
	return "scheduling.time_slots"
}

// Contains reports whether the requested interval falls inside this slot.
func (s *TimeSlot) Contains(start, end time.Time) bool {
	return !s.StartTime.After(start) && !s.EndTime.Before(end)
}

// AvailabilityDay is a doctor's slot schedule for one calendar date.
// At most one row exists per (doctor, date); the slot sequence is regenerated
// as a whole when the day's working hours are redefined.
type AvailabilityDay struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;uniqueIndex:idx_days_doctor_date" json:"doctor_id"`
	// Date is truncated to midnight in the clinic's local zone.
	Date      time.Time `gorm:"column:date;not null;uniqueIndex:idx_days_doctor_date;index" json:"date"`
	DayOfWeek int       `gorm:"column:day_of_week;not null" json:"day_of_week"`

	// Snapshot of the working hours used to generate this day's slots.
	WorkStart        string            `gorm:"column:work_start;type:varchar(5);not null" json:"work_start"`
	WorkEnd          string            `gorm:"column:work_end;type:varchar(5);not null" json:"work_end"`
	SlotDurationMins int               `gorm:"column:slot_duration_mins;not null" json:"slot_duration_mins"`
	RecurringPattern RecurrencePattern `gorm:"column:recurring_pattern;type:varchar(20);not null;default:'none'" json:"recurring_pattern"`

	Slots []TimeSlot `gorm:"foreignKey:DayID" json:"slots"`
}

func (AvailabilityDay) TableName() string {
	return "scheduling.availability_days"
}

func (d *AvailabilityDay) IsRecurring() bool {
	return d.RecurringPattern != "" && d.RecurringPattern != RecurrenceNone
}

// HasBookedSlots reports whether any slot of this day is reserved.
func (d *AvailabilityDay) HasBookedSlots() bool {
	for i := range d.Slots {
		if d.Slots[i].IsBooked {
			return true
		}
	}
	return false
}

// FreeSlot is the flattened query view returned to callers looking for
// bookable time across a date range.
type FreeSlot struct {
	SlotID       uuid.UUID `json:"slot_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	Date         time.Time `json:"date"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationMins int       `json:"duration_mins"`
}

// TruncateToDay drops the time-of-day component, preserving the location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
