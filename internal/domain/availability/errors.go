package availability

import "errors"

var (
	ErrDayNotFound         = errors.New("no availability found for that doctor and date")
	ErrSlotUnavailable     = errors.New("requested time slot is no longer available")
	ErrDayHasBookings      = errors.New("availability for that date has booked slots; regeneration requires force")
	ErrInvalidWorkingHours = errors.New("working hours must be HH:MM with start before end")
	ErrInvalidSlotDuration = errors.New("slot duration must be a positive number of minutes")
	ErrInvalidPattern      = errors.New("invalid recurrence pattern")
)
