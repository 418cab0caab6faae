package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
)

func newDoctorFixture(t *testing.T) (*DoctorService, *mockDoctorRepo) {
	t.Helper()
	repo := newMockDoctorRepo()
	audit := NewAuditService(&mockAuditRepo{}, nil, zap.NewNop())
	t.Cleanup(audit.Shutdown)
	return NewDoctorService(repo, audit, zap.NewNop()), repo
}

func weekdayHours(start, end string) doctor.WeeklyHours {
	var w doctor.WeeklyHours
	for day := time.Monday; day <= time.Friday; day++ {
		w[int(day)] = doctor.DayHours{Enabled: true, Start: start, End: end}
	}
	return w
}

func hireCommand() *doctor.CreateDoctorCommand {
	return &doctor.CreateDoctorCommand{
		FirstName:     "Marta",
		LastName:      "Iglesias",
		Specialty:     "cardiology",
		LicenseNumber: "LIC-20413",
		Email:         "M.Iglesias@Example.com",
		WeeklyHours:   weekdayHours("09:00", "17:00"),
	}
}

func TestCreateDoctor_Success(t *testing.T) {
	svc, _ := newDoctorFixture(t)

	d, err := svc.CreateDoctor(context.Background(), hireCommand(), adminCaller())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsActive {
		t.Error("new doctor not active")
	}
	if d.SlotDurationMins != 30 {
		t.Errorf("slot duration defaulted to %d, want 30", d.SlotDurationMins)
	}
	if d.Email != "m.iglesias@example.com" {
		t.Errorf("email not normalized: %q", d.Email)
	}
}

func TestCreateDoctor_Forbidden(t *testing.T) {
	svc, _ := newDoctorFixture(t)
	if _, err := svc.CreateDoctor(context.Background(), hireCommand(), doctorCaller(uuid.New())); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestCreateDoctor_DuplicateLicense(t *testing.T) {
	svc, _ := newDoctorFixture(t)
	if _, err := svc.CreateDoctor(context.Background(), hireCommand(), adminCaller()); err != nil {
		t.Fatalf("first hire failed: %v", err)
	}
	if _, err := svc.CreateDoctor(context.Background(), hireCommand(), adminCaller()); !errors.Is(err, doctor.ErrDoctorAlreadyExists) {
		t.Errorf("got %v, want ErrDoctorAlreadyExists", err)
	}
}

func TestCreateDoctor_InvalidWeeklyHours(t *testing.T) {
	svc, _ := newDoctorFixture(t)
	cmd := hireCommand()
	cmd.WeeklyHours[int(time.Wednesday)] = doctor.DayHours{Enabled: true, Start: "17:00", End: "09:00"}

	var vErr *ValidationError
	if _, err := svc.CreateDoctor(context.Background(), cmd, adminCaller()); !errors.As(err, &vErr) {
		t.Errorf("got %v, want ValidationError", err)
	}
}

func TestUpdateWorkingHours_Success(t *testing.T) {
	svc, repo := newDoctorFixture(t)
	d := activeDoctor()
	d.WeeklyHours = weekdayHours("09:00", "17:00")
	repo.put(d)

	hours := weekdayHours("08:00", "14:00")
	mins := 20
	updated, err := svc.UpdateWorkingHours(context.Background(), d.ID, &doctor.UpdateWorkingHoursCommand{
		WeeklyHours:      &hours,
		SlotDurationMins: &mins,
	}, doctorCaller(d.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.SlotDurationMins != 20 {
		t.Errorf("slot duration = %d, want 20", updated.SlotDurationMins)
	}
	if got, ok := updated.WeeklyHours.HoursFor(time.Monday); !ok || got.Start != "08:00" {
		t.Errorf("monday hours = %+v, ok=%v", got, ok)
	}
}

func TestUpdateWorkingHours_Permissions(t *testing.T) {
	svc, repo := newDoctorFixture(t)
	d := activeDoctor()
	repo.put(d)

	mins := 20
	cmd := &doctor.UpdateWorkingHoursCommand{SlotDurationMins: &mins}

	if _, err := svc.UpdateWorkingHours(context.Background(), d.ID, cmd, doctorCaller(uuid.New())); !errors.Is(err, ErrForbidden) {
		t.Errorf("other doctor: got %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateWorkingHours(context.Background(), d.ID, cmd, nurseCaller()); !errors.Is(err, ErrForbidden) {
		t.Errorf("nurse: got %v, want ErrForbidden", err)
	}
}

func TestUpdateWorkingHours_InvalidSlotDuration(t *testing.T) {
	svc, repo := newDoctorFixture(t)
	d := activeDoctor()
	repo.put(d)

	mins := 0
	if _, err := svc.UpdateWorkingHours(context.Background(), d.ID, &doctor.UpdateWorkingHoursCommand{
		SlotDurationMins: &mins,
	}, doctorCaller(d.ID)); !errors.Is(err, availability.ErrInvalidSlotDuration) {
		t.Errorf("got %v, want ErrInvalidSlotDuration", err)
	}
}

func TestDefaultHoursFor(t *testing.T) {
	svc, repo := newDoctorFixture(t)
	d := activeDoctor()
	d.WeeklyHours = weekdayHours("09:00", "17:00")
	repo.put(d)

	// 2026-03-02 is a Monday, 2026-03-07 a Saturday.
	hours, ok, err := svc.DefaultHoursFor(context.Background(), d.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil || !ok {
		t.Fatalf("monday lookup: hours=%+v ok=%v err=%v", hours, ok, err)
	}
	if hours.Start != "09:00" || hours.End != "17:00" {
		t.Errorf("monday hours = %+v", hours)
	}

	_, ok, err = svc.DefaultHoursFor(context.Background(), d.ID, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("saturday lookup: %v", err)
	}
	if ok {
		t.Error("saturday reported as a working day")
	}
}
