package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/pkg/notify"
)

// stubAppointmentRepo serves a fixed upcoming set; the other repository
// methods are never reached by the job.
type stubAppointmentRepo struct {
	upcoming []*appointment.Appointment
}

func (s *stubAppointmentRepo) Create(context.Context, *appointment.Appointment) error { return nil }
func (s *stubAppointmentRepo) GetByID(context.Context, uuid.UUID) (*appointment.Appointment, error) {
	return nil, appointment.ErrAppointmentNotFound
}
func (s *stubAppointmentRepo) List(context.Context, *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return &appointment.PagedAppointments{}, nil
}
func (s *stubAppointmentRepo) UpdateStatus(context.Context, *appointment.Appointment) error {
	return nil
}
func (s *stubAppointmentRepo) GetUpcoming(context.Context, int) ([]*appointment.Appointment, error) {
	return s.upcoming, nil
}

type stubPatientRepo struct {
	p *patient.Patient
}

func (s *stubPatientRepo) Create(context.Context, *patient.Patient) error { return nil }
func (s *stubPatientRepo) GetByID(context.Context, uuid.UUID) (*patient.Patient, error) {
	return s.p, nil
}
func (s *stubPatientRepo) GetByNationalID(context.Context, string) (*patient.Patient, error) {
	return s.p, nil
}
func (s *stubPatientRepo) Update(context.Context, uuid.UUID, *patient.UpdatePatientCommand) (*patient.Patient, error) {
	return s.p, nil
}
func (s *stubPatientRepo) SoftDelete(context.Context, uuid.UUID) error { return nil }
func (s *stubPatientRepo) List(context.Context, *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	return &patient.PagedPatients{}, nil
}
func (s *stubPatientRepo) ExistsByNationalID(context.Context, string, *uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubPatientRepo) UpdateRiskAssessment(context.Context, uuid.UUID, float64, string) error {
	return nil
}

type stubDoctorRepo struct {
	d *doctor.Doctor
}

func (s *stubDoctorRepo) Create(context.Context, *doctor.Doctor) error { return nil }
func (s *stubDoctorRepo) GetByID(context.Context, uuid.UUID) (*doctor.Doctor, error) {
	return s.d, nil
}
func (s *stubDoctorRepo) List(context.Context, *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	return &doctor.PagedDoctors{}, nil
}
func (s *stubDoctorRepo) UpdateWorkingHours(context.Context, *doctor.Doctor) error { return nil }
func (s *stubDoctorRepo) ExistsByLicense(context.Context, string) (bool, error)    { return false, nil }

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (c *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func newReminderFixture(upcoming []*appointment.Appointment, notifier notify.Notifier) *ReminderJob {
	return NewReminderJob(
		config.JobsConfig{ReminderSchedule: "*/15 * * * *", ReminderWindowHours: 24},
		&stubAppointmentRepo{upcoming: upcoming},
		&stubPatientRepo{p: &patient.Patient{ID: uuid.New(), FirstName: "Ana", LastName: "Reyes", ContactInfo: patient.ContactInfo{Email: "ana@example.com"}}},
		&stubDoctorRepo{d: &doctor.Doctor{ID: uuid.New(), FirstName: "Marta", LastName: "Iglesias", Email: "marta@example.com"}},
		notifier,
		nil,
		zap.NewNop(),
	)
}

func upcomingAppointment(in time.Duration) *appointment.Appointment {
	return &appointment.Appointment{
		ID:           uuid.New(),
		PatientID:    uuid.New(),
		DoctorID:     uuid.New(),
		ScheduledAt:  time.Now().Add(in),
		DurationMins: 30,
		Status:       appointment.StatusConfirmed,
	}
}

func TestReminderRun_SendsOncePerAppointment(t *testing.T) {
	a := upcomingAppointment(2 * time.Hour)
	notifier := &captureNotifier{}
	job := newReminderFixture([]*appointment.Appointment{a}, notifier)

	job.run()
	job.run()

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 reminder across two runs, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.Kind != notify.KindReminder {
		t.Errorf("kind = %s", msg.Kind)
	}
	if msg.AppointmentID != a.ID {
		t.Error("reminder not linked to appointment")
	}
	if msg.Patient.Email != "ana@example.com" || msg.Doctor.Email != "marta@example.com" {
		t.Errorf("recipients wrong: %+v", msg)
	}
}

func TestReminderRun_ConcurrentSweepsSendOnce(t *testing.T) {
	a := upcomingAppointment(2 * time.Hour)
	notifier := &captureNotifier{}
	job := newReminderFixture([]*appointment.Appointment{a}, notifier)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.run()
		}()
	}
	wg.Wait()

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 reminder across concurrent sweeps, got %d", len(notifier.sent))
	}
}

func TestReminderRun_RetriesAfterFailure(t *testing.T) {
	a := upcomingAppointment(2 * time.Hour)
	notifier := &captureNotifier{err: errors.New("smtp down")}
	job := newReminderFixture([]*appointment.Appointment{a}, notifier)

	job.run()
	if len(notifier.sent) != 0 {
		t.Fatal("failed send recorded a message")
	}

	// A failed reminder must not be marked as sent.
	notifier.err = nil
	job.run()
	if len(notifier.sent) != 1 {
		t.Fatalf("expected reminder on retry, got %d", len(notifier.sent))
	}
}

func TestReminderRun_PrunesPastEntries(t *testing.T) {
	notifier := &captureNotifier{}
	job := newReminderFixture(nil, notifier)
	job.sent["stale"] = time.Now().Add(-time.Hour)
	job.sent["fresh"] = time.Now().Add(time.Hour)

	job.run()

	if _, ok := job.sent["stale"]; ok {
		t.Error("past entry not pruned")
	}
	if _, ok := job.sent["fresh"]; !ok {
		t.Error("future entry pruned")
	}
}
