package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/internal/domain/patient"
)

// ── Mock availability ledger ──────────────────────────────────────────

type ledgerKey struct {
	doctorID uuid.UUID
	date     time.Time
}

// mockLedger keeps days in a map and guards every operation with one mutex,
// so the conditional reserve has the same mutual-exclusion property as the
// SQL implementation's single UPDATE.
type mockLedger struct {
	mu   sync.Mutex
	days map[ledgerKey]*availability.AvailabilityDay

	replaceErr error
	reserveErr error
	releases   int
}

func newMockLedger() *mockLedger {
	return &mockLedger{days: make(map[ledgerKey]*availability.AvailabilityDay)}
}

func (m *mockLedger) key(doctorID uuid.UUID, date time.Time) ledgerKey {
	return ledgerKey{doctorID: doctorID, date: availability.TruncateToDay(date)}
}

// put seeds a fully generated day into the ledger, assigning slot ids the
// way the database default would.
func (m *mockLedger) put(day *availability.AvailabilityDay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	for i := range day.Slots {
		if day.Slots[i].ID == uuid.Nil {
			day.Slots[i].ID = uuid.New()
		}
		day.Slots[i].DayID = day.ID
	}
	m.days[m.key(day.DoctorID, day.Date)] = day
}

func (m *mockLedger) GetByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) (*availability.AvailabilityDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.days[m.key(doctorID, date)]
	if !ok {
		return nil, availability.ErrDayNotFound
	}
	return day, nil
}

func (m *mockLedger) Replace(_ context.Context, day *availability.AvailabilityDay) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.put(day)
	return nil
}

func (m *mockLedger) CreateIfAbsent(_ context.Context, day *availability.AvailabilityDay) (bool, error) {
	m.mu.Lock()
	k := m.key(day.DoctorID, day.Date)
	if _, ok := m.days[k]; ok {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()
	m.put(day)
	return true, nil
}

func (m *mockLedger) ListRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.AvailabilityDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []availability.AvailabilityDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if day, ok := m.days[m.key(doctorID, d)]; ok {
			out = append(out, *day)
		}
	}
	return out, nil
}

func (m *mockLedger) ReserveSlot(_ context.Context, doctorID uuid.UUID, date, start, end time.Time, appointmentID uuid.UUID) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	day, ok := m.days[m.key(doctorID, date)]
	if !ok {
		return availability.ErrSlotUnavailable
	}
	for i := range day.Slots {
		s := &day.Slots[i]
		if !s.IsBooked && s.Contains(start, end) {
			s.IsBooked = true
			id := appointmentID
			s.AppointmentID = &id
			return nil
		}
	}
	return availability.ErrSlotUnavailable
}

func (m *mockLedger) ReleaseSlot(_ context.Context, appointmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, day := range m.days {
		for i := range day.Slots {
			s := &day.Slots[i]
			if s.AppointmentID != nil && *s.AppointmentID == appointmentID {
				s.IsBooked = false
				s.AppointmentID = nil
				m.releases++
			}
		}
	}
	return nil
}

func (m *mockLedger) Delete(_ context.Context, doctorID uuid.UUID, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(doctorID, date)
	if _, ok := m.days[k]; !ok {
		return availability.ErrDayNotFound
	}
	delete(m.days, k)
	return nil
}

// ── Mock appointment repository ───────────────────────────────────────

type mockAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment

	createErr error
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range m.appointments {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return &appointment.PagedAppointments{
		Appointments: out,
		TotalCount:   int64(len(out)),
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   1,
	}, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetUpcoming(_ context.Context, withinHours int) ([]*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	horizon := now.Add(time.Duration(withinHours) * time.Hour)
	var out []*appointment.Appointment
	for _, a := range m.appointments {
		if a.Status.HoldsSlot() && a.ScheduledAt.After(now) && !a.ScheduledAt.After(horizon) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── Mock patient repository ───────────────────────────────────────────

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) put(p *patient.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	for _, existing := range m.patients {
		if existing.NationalID != "" && existing.NationalID == p.NationalID {
			m.mu.Unlock()
			return patient.ErrPatientAlreadyExists
		}
	}
	m.mu.Unlock()
	m.put(p)
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByNationalID(_ context.Context, nationalID string) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.NationalID == nationalID {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}
	return p, nil
}

func (m *mockPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.patients {
		if p.DeletedAt != nil {
			continue
		}
		out = append(out, p)
	}
	return &patient.PagedPatients{
		Patients:   out,
		TotalCount: int64(len(out)),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: 1,
	}, nil
}

func (m *mockPatientRepo) ExistsByNationalID(_ context.Context, nationalID string, excludeID *uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPatientRepo) UpdateRiskAssessment(_ context.Context, id uuid.UUID, score float64, level string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.RecordRiskAssessment(score, level, time.Now())
	return nil
}

// ── Mock doctor repository ────────────────────────────────────────────

type mockDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*doctor.Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*doctor.Doctor)}
}

func (m *mockDoctorRepo) put(d *doctor.Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.doctors[d.ID] = d
}

func (m *mockDoctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	m.put(d)
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) List(_ context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range m.doctors {
		out = append(out, d)
	}
	return &doctor.PagedDoctors{
		Doctors:    out,
		TotalCount: int64(len(out)),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: 1,
	}, nil
}

func (m *mockDoctorRepo) UpdateWorkingHours(_ context.Context, d *doctor.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[d.ID]; !ok {
		return doctor.ErrDoctorNotFound
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) ExistsByLicense(_ context.Context, licenseNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.LicenseNumber == licenseNumber {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock audit repository ─────────────────────────────────────────────

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// ── Shared fixtures ───────────────────────────────────────────────────

var errStorage = errors.New("storage unavailable")

func activePatient() *patient.Patient {
	return &patient.Patient{
		ID:          uuid.New(),
		FirstName:   "Ana",
		LastName:    "Reyes",
		DateOfBirth: time.Date(1984, 6, 12, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		Status:      patient.StatusActive,
		ContactInfo: patient.ContactInfo{Email: "ana.reyes@example.com"},
	}
}

func activeDoctor() *doctor.Doctor {
	return &doctor.Doctor{
		ID:               uuid.New(),
		FirstName:        "Marta",
		LastName:         "Iglesias",
		Specialty:        "cardiology",
		LicenseNumber:    "LIC-20413",
		Email:            "m.iglesias@example.com",
		SlotDurationMins: 30,
		IsActive:         true,
	}
}

// seedDay generates and stores a full availability day for the doctor.
func seedDay(t testingT, ledger *mockLedger, doctorID uuid.UUID, date time.Time, hours availability.WorkingHours, slotMins int) *availability.AvailabilityDay {
	day, err := availability.NewDay(doctorID, date, hours, slotMins, availability.RecurrenceNone)
	if err != nil {
		t.Fatalf("seeding availability day: %v", err)
	}
	ledger.put(day)
	return day
}

// testingT is the subset of *testing.T the fixtures need.
type testingT interface {
	Fatalf(format string, args ...any)
}
