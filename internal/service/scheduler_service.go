package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/pkg/metrics"
	"github.com/clinicore/clinicore/pkg/notify"
)

// SchedulerService books appointments against the availability ledger and
// drives the appointment status state machine. It is the only writer of
// appointment records and the only caller of the ledger's reserve/release
// operations.
type SchedulerService struct {
	repo        appointment.Repository
	ledger      availability.Repository
	patientRepo patient.Repository
	doctorRepo  doctor.Repository
	notifier    notify.Notifier
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewSchedulerService(
	repo appointment.Repository,
	ledger availability.Repository,
	patientRepo patient.Repository,
	doctorRepo doctor.Repository,
	notifier notify.Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *SchedulerService {
	return &SchedulerService{
		repo:        repo,
		ledger:      ledger,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		notifier:    notifier,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
	}
}

// CreateAppointment books a slot and creates the appointment together or not
// at all. The appointment id is generated up front and used as the
// reservation key: the slot is reserved first (cheap to roll back), then the
// appointment row is written; if that write fails the slot is released.
func (s *SchedulerService) CreateAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand, caller Caller) (*appointment.Appointment, error) {
	if !caller.Role.Can(domain.CapBookAppointments) {
		return nil, ErrForbidden
	}
	// Patients book only for themselves.
	if caller.Role == domain.RolePatient && !caller.IsSelfPatient(cmd.PatientID) {
		return nil, ErrForbidden
	}

	if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if cmd.DurationMins < 5 || cmd.DurationMins > 480 {
		return nil, appointment.ErrInvalidDuration
	}
	if !cmd.Type.IsValid() {
		return nil, appointment.ErrInvalidAppointmentType
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientDeceased
	}

	doc, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("verifying doctor: %w", err)
	}
	if !doc.IsActive {
		return nil, doctor.ErrDoctorInactive
	}

	apptID := uuid.New()
	endsAt := cmd.ScheduledAt.Add(time.Duration(cmd.DurationMins) * time.Minute)
	date := availability.TruncateToDay(cmd.ScheduledAt)

	if err := s.ledger.ReserveSlot(ctx, cmd.DoctorID, date, cmd.ScheduledAt, endsAt, apptID); err != nil {
		if errors.Is(err, availability.ErrSlotUnavailable) {
			// Losing a race for a slot is an expected outcome, not a fault.
			s.log.Debug("slot reservation rejected",
				zap.String("doctor_id", cmd.DoctorID.String()),
				zap.Time("requested_start", cmd.ScheduledAt),
			)
			if s.metrics != nil {
				s.metrics.ReservationsLost.Inc()
			}
			return nil, availability.ErrSlotUnavailable
		}
		return nil, fmt.Errorf("reserving slot: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ReservationsWon.Inc()
	}

	a := &appointment.Appointment{
		ID:           apptID,
		PatientID:    cmd.PatientID,
		DoctorID:     cmd.DoctorID,
		ScheduledAt:  cmd.ScheduledAt,
		DurationMins: cmd.DurationMins,
		Type:         cmd.Type,
		Status:       appointment.StatusScheduled,
		Reason:       cmd.Reason,
		Notes:        cmd.Notes,
		Room:         cmd.Room,
		CreatedBy:    cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		// Roll the reservation back so the slot is not stranded.
		if relErr := s.ledger.ReleaseSlot(ctx, apptID); relErr != nil {
			s.log.Error("failed to release slot after appointment create failure",
				zap.String("appointment_id", apptID.String()),
				zap.Error(relErr),
			)
		}
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    caller.IP,
	})

	s.notifyAsync(a, p, doc, notify.KindBooked, "")

	return a, nil
}

// UpdateStatus applies one transition of the appointment state machine.
// Patients may only cancel, and only their own appointment; staff with the
// status capability may apply any valid transition. Cancellation releases
// the reserved slot.
func (s *SchedulerService) UpdateStatus(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateStatusCommand, caller Caller) (*appointment.Appointment, error) {
	if !cmd.NewStatus.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case caller.Role.Can(domain.CapSetAppointmentStatus):
		// Doctors act on their own appointments; admins on any.
		if caller.Role == domain.RoleDoctor && !caller.IsSelfDoctor(a.DoctorID) {
			return nil, ErrForbidden
		}
	case caller.Role.Can(domain.CapCancelOwnAppointment):
		if cmd.NewStatus != appointment.StatusCancelled || !caller.IsSelfPatient(a.PatientID) {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if !a.CanTransitionTo(cmd.NewStatus) {
		return nil, appointment.ErrInvalidStatusTransition
	}

	switch cmd.NewStatus {
	case appointment.StatusCancelled:
		if err := a.Cancel(cmd.Reason, cmd.UpdatedBy); err != nil {
			return nil, err
		}
	case appointment.StatusCompleted:
		if err := a.Complete(nil); err != nil {
			return nil, err
		}
	default:
		a.Status = cmd.NewStatus
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}
	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	if cmd.NewStatus == appointment.StatusCancelled {
		// Keyed by appointment id and idempotent, so ordering relative to
		// the status write does not matter.
		if err := s.ledger.ReleaseSlot(ctx, a.ID); err != nil {
			s.log.Error("failed to release slot for cancelled appointment",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    caller.IP,
		Changes:      fmt.Sprintf(`{"status":%q}`, cmd.NewStatus),
	})

	kind := notify.KindStatusChanged
	if cmd.NewStatus == appointment.StatusCancelled {
		kind = notify.KindCancelled
	}
	s.notifyStatusAsync(a, kind, string(cmd.NewStatus))

	return a, nil
}

func (s *SchedulerService) GetAppointment(ctx context.Context, id uuid.UUID, caller Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Role == domain.RolePatient && !caller.IsSelfPatient(a.PatientID) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: caller.IP,
	})

	return a, nil
}

func (s *SchedulerService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, caller Caller) (*appointment.PagedAppointments, error) {
	// Patients can only see their own appointments
	if caller.Role == domain.RolePatient && caller.PatientID != nil {
		q.PatientID = caller.PatientID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// notifyAsync dispatches a booking notification without blocking the
// request. Failures are logged, never propagated.
func (s *SchedulerService) notifyAsync(a *appointment.Appointment, p *patient.Patient, doc *doctor.Doctor, kind notify.ChangeKind, detail string) {
	msg := notify.Message{
		Kind:          kind,
		AppointmentID: a.ID,
		Patient:       notify.Party{Name: p.FullName(), Email: p.Email},
		Doctor:        notify.Party{Name: doc.FullName(), Email: doc.Email},
		StartsAt:      a.ScheduledAt,
		DurationMins:  a.DurationMins,
		Detail:        detail,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.log.Warn("appointment notification failed",
				zap.String("appointment_id", a.ID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}()
}

// notifyStatusAsync looks the parties up in the background before sending;
// a status change response never waits on directory reads.
func (s *SchedulerService) notifyStatusAsync(a *appointment.Appointment, kind notify.ChangeKind, detail string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		p, err := s.patientRepo.GetByID(ctx, a.PatientID)
		if err != nil {
			s.log.Warn("skipping notification: patient lookup failed", zap.Error(err))
			return
		}
		doc, err := s.doctorRepo.GetByID(ctx, a.DoctorID)
		if err != nil {
			s.log.Warn("skipping notification: doctor lookup failed", zap.Error(err))
			return
		}

		msg := notify.Message{
			Kind:          kind,
			AppointmentID: a.ID,
			Patient:       notify.Party{Name: p.FullName(), Email: p.Email},
			Doctor:        notify.Party{Name: doc.FullName(), Email: doc.Email},
			StartsAt:      a.ScheduledAt,
			DurationMins:  a.DurationMins,
			Detail:        detail,
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.log.Warn("appointment notification failed",
				zap.String("appointment_id", a.ID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}()
}
