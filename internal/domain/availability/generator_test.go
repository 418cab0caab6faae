package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDailySlots_FullDay(t *testing.T) {
	slots, err := GenerateDailySlots(date(2026, 3, 2), WorkingHours{Start: "09:00", End: "17:00"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 8h at 30min, got %d", len(slots))
	}

	// Slots must tile the window with no gaps or overlaps.
	for i := 1; i < len(slots); i++ {
		if !slots[i].StartTime.Equal(slots[i-1].EndTime) {
			t.Errorf("slot %d starts at %v, previous ends at %v", i, slots[i].StartTime, slots[i-1].EndTime)
		}
	}

	first := slots[0]
	if first.StartTime.Hour() != 9 || first.StartTime.Minute() != 0 {
		t.Errorf("first slot starts at %v, want 09:00", first.StartTime)
	}
	last := slots[len(slots)-1]
	if last.EndTime.Hour() != 17 || last.EndTime.Minute() != 0 {
		t.Errorf("last slot ends at %v, want 17:00", last.EndTime)
	}

	for i, s := range slots {
		if s.IsBooked {
			t.Errorf("slot %d generated as booked", i)
		}
		if s.EndTime.Sub(s.StartTime) != 30*time.Minute {
			t.Errorf("slot %d has duration %v", i, s.EndTime.Sub(s.StartTime))
		}
	}
}

func TestGenerateDailySlots_DropsTrailingRemainder(t *testing.T) {
	slots, err := GenerateDailySlots(date(2026, 3, 2), WorkingHours{Start: "09:00", End: "09:50"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot in a 50min window at 30min, got %d", len(slots))
	}
	if slots[0].EndTime.Minute() != 30 {
		t.Errorf("slot ends at %v, want 09:30", slots[0].EndTime)
	}
}

func TestGenerateDailySlots_WindowShorterThanSlot(t *testing.T) {
	slots, err := GenerateDailySlots(date(2026, 3, 2), WorkingHours{Start: "09:00", End: "09:20"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestGenerateDailySlots_InvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		hours WorkingHours
		mins  int
		want  error
	}{
		{"zero duration", WorkingHours{Start: "09:00", End: "17:00"}, 0, ErrInvalidSlotDuration},
		{"negative duration", WorkingHours{Start: "09:00", End: "17:00"}, -15, ErrInvalidSlotDuration},
		{"end before start", WorkingHours{Start: "17:00", End: "09:00"}, 30, ErrInvalidWorkingHours},
		{"start equals end", WorkingHours{Start: "09:00", End: "09:00"}, 30, ErrInvalidWorkingHours},
		{"garbage start", WorkingHours{Start: "nine", End: "17:00"}, 30, ErrInvalidWorkingHours},
		{"missing colon", WorkingHours{Start: "0900", End: "17:00"}, 30, ErrInvalidWorkingHours},
		{"hour out of range", WorkingHours{Start: "25:00", End: "26:00"}, 30, ErrInvalidWorkingHours},
		{"minute out of range", WorkingHours{Start: "09:75", End: "17:00"}, 30, ErrInvalidWorkingHours},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateDailySlots(date(2026, 3, 2), tc.hours, tc.mins)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOccurrenceDates_Weekly(t *testing.T) {
	base := date(2026, 3, 2) // a Monday
	dates, err := OccurrenceDates(base, RecurrenceWeekly, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(dates))
	}
	for i, d := range dates {
		want := base.AddDate(0, 0, 7*(i+1))
		if !d.Equal(want) {
			t.Errorf("occurrence %d is %v, want %v", i, d, want)
		}
		if d.Weekday() != time.Monday {
			t.Errorf("occurrence %d falls on %v, want Monday", i, d.Weekday())
		}
	}
}

func TestOccurrenceDates_Steps(t *testing.T) {
	base := date(2026, 3, 2)

	biweekly, err := OccurrenceDates(base, RecurrenceBiweekly, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !biweekly[0].Equal(base.AddDate(0, 0, 14)) || !biweekly[1].Equal(base.AddDate(0, 0, 28)) {
		t.Errorf("biweekly occurrences wrong: %v", biweekly)
	}

	// Monthly is a fixed 28-day step, so the weekday is preserved.
	monthly, err := OccurrenceDates(base, RecurrenceMonthly, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, d := range monthly {
		if !d.Equal(base.AddDate(0, 0, 28*(i+1))) {
			t.Errorf("monthly occurrence %d wrong: %v", i, d)
		}
		if d.Weekday() != base.Weekday() {
			t.Errorf("monthly occurrence %d changed weekday to %v", i, d.Weekday())
		}
	}
}

func TestOccurrenceDates_RejectsNonRecurring(t *testing.T) {
	if _, err := OccurrenceDates(date(2026, 3, 2), RecurrenceNone, 4); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("none pattern: got %v, want ErrInvalidPattern", err)
	}
	if _, err := OccurrenceDates(date(2026, 3, 2), RecurrencePattern("yearly"), 4); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("unknown pattern: got %v, want ErrInvalidPattern", err)
	}
}

func TestNewDay_SnapshotsDefinition(t *testing.T) {
	doctorID := uuid.New()
	at := time.Date(2026, 3, 2, 14, 45, 0, 0, time.UTC) // time-of-day must be dropped

	day, err := NewDay(doctorID, at, WorkingHours{Start: "08:00", End: "12:00"}, 20, RecurrenceWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !day.Date.Equal(date(2026, 3, 2)) {
		t.Errorf("date not truncated: %v", day.Date)
	}
	if day.DayOfWeek != int(time.Monday) {
		t.Errorf("day of week = %d, want %d", day.DayOfWeek, int(time.Monday))
	}
	if day.WorkStart != "08:00" || day.WorkEnd != "12:00" {
		t.Errorf("working hours not snapshotted: %s-%s", day.WorkStart, day.WorkEnd)
	}
	if len(day.Slots) != 12 {
		t.Errorf("expected 12 slots for 4h at 20min, got %d", len(day.Slots))
	}
	if !day.IsRecurring() {
		t.Error("weekly day not reported as recurring")
	}
}

func TestWorkingHours_Validate(t *testing.T) {
	if err := (WorkingHours{Start: "09:00", End: "17:30"}).Validate(); err != nil {
		t.Errorf("valid hours rejected: %v", err)
	}
	if err := (WorkingHours{Start: "17:00", End: "09:00"}).Validate(); !errors.Is(err, ErrInvalidWorkingHours) {
		t.Errorf("inverted hours: got %v", err)
	}
	if err := (WorkingHours{Start: "9am", End: "17:00"}).Validate(); !errors.Is(err, ErrInvalidWorkingHours) {
		t.Errorf("malformed clock: got %v", err)
	}
}

func TestTimeSlot_Contains(t *testing.T) {
	s := TimeSlot{
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}

	if !s.Contains(s.StartTime, s.EndTime) {
		t.Error("slot does not contain its exact bounds")
	}
	if !s.Contains(s.StartTime.Add(5*time.Minute), s.EndTime.Add(-5*time.Minute)) {
		t.Error("slot does not contain an interior interval")
	}
	if s.Contains(s.StartTime.Add(-1*time.Minute), s.EndTime) {
		t.Error("slot contains an interval starting before it")
	}
	if s.Contains(s.StartTime, s.EndTime.Add(time.Minute)) {
		t.Error("slot contains an interval ending after it")
	}
}
