package availability

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateDailySlots computes the bookable slots for one date given a working
// window and a slot duration. Slots tile [start, end) in whole slot-duration
// steps; a trailing remainder shorter than the duration is dropped rather
// than emitted as a short slot. The function is pure.
func GenerateDailySlots(date time.Time, hours WorkingHours, slotDurationMins int) ([]TimeSlot, error) {
	if slotDurationMins <= 0 {
		return nil, ErrInvalidSlotDuration
	}

	start, err := atClock(date, hours.Start)
	if err != nil {
		return nil, err
	}
	end, err := atClock(date, hours.End)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, ErrInvalidWorkingHours
	}

	step := time.Duration(slotDurationMins) * time.Minute

	var slots []TimeSlot
	for cursor := start; cursor.Before(end); cursor = cursor.Add(step) {
		slotEnd := cursor.Add(step)
		if slotEnd.After(end) {
			break
		}
		slots = append(slots, TimeSlot{
			StartTime: cursor,
			EndTime:   slotEnd,
			IsBooked:  false,
		})
	}

	return slots, nil
}

// OccurrenceDates returns the n future dates a recurring definition projects
// to, by repeated addition of the pattern's day step to base. The base date
// itself is not included.
func OccurrenceDates(base time.Time, pattern RecurrencePattern, n int) ([]time.Time, error) {
	if !pattern.IsValid() || pattern == RecurrenceNone {
		return nil, ErrInvalidPattern
	}

	step := pattern.IntervalDays()
	dates := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		dates = append(dates, base.AddDate(0, 0, i*step))
	}
	return dates, nil
}

// NewDay builds a fully generated AvailabilityDay for one (doctor, date).
func NewDay(doctorID uuid.UUID, date time.Time, hours WorkingHours, slotDurationMins int, pattern RecurrencePattern) (*AvailabilityDay, error) {
	day := TruncateToDay(date)
	slots, err := GenerateDailySlots(day, hours, slotDurationMins)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = RecurrenceNone
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidPattern
	}

	return &AvailabilityDay{
		DoctorID:         doctorID,
		Date:             day,
		DayOfWeek:        int(day.Weekday()),
		WorkStart:        hours.Start,
		WorkEnd:          hours.End,
		SlotDurationMins: slotDurationMins,
		RecurringPattern: pattern,
		Slots:            slots,
	}, nil
}

// Validate checks that both clock readings parse and that the window spans a
// positive duration.
func (h WorkingHours) Validate() error {
	sh, sm, err := parseClock(h.Start)
	if err != nil {
		return err
	}
	eh, em, err := parseClock(h.End)
	if err != nil {
		return err
	}
	if sh*60+sm >= eh*60+em {
		return ErrInvalidWorkingHours
	}
	return nil
}

// atClock anchors an "HH:MM" clock reading on the given date, in that date's
// location.
func atClock(date time.Time, clock string) (time.Time, error) {
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidWorkingHours
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidWorkingHours
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidWorkingHours
	}
	return hour, minute, nil
}
