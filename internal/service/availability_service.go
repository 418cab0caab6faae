package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/pkg/metrics"
)

type AvailabilityService struct {
	ledger     availability.Repository
	doctorRepo doctor.Repository
	projector  *RecurrenceProjector
	auditSvc   *AuditService
	metrics    *metrics.Collector
	horizon    int
	log        *zap.Logger
}

func NewAvailabilityService(
	ledger availability.Repository,
	doctorRepo doctor.Repository,
	projector *RecurrenceProjector,
	auditSvc *AuditService,
	m *metrics.Collector,
	horizon int,
	log *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		ledger:     ledger,
		doctorRepo: doctorRepo,
		projector:  projector,
		auditSvc:   auditSvc,
		metrics:    m,
		horizon:    horizon,
		log:        log,
	}
}

type SetAvailabilityCommand struct {
	DoctorID         uuid.UUID
	Date             time.Time
	Hours            availability.WorkingHours
	SlotDurationMins int // 0 falls back to the doctor's default
	Pattern          availability.RecurrencePattern
	// Force permits regenerating a day that already has booked slots,
	// discarding those bookings. Without it such a day is left untouched.
	Force bool
}

// SetAvailability creates or replaces the doctor's slot schedule for one
// date and, for recurring definitions, enqueues projection of future
// occurrences. The response never waits on the projection.
func (s *AvailabilityService) SetAvailability(ctx context.Context, cmd *SetAvailabilityCommand, caller Caller) (*availability.AvailabilityDay, error) {
	if !caller.Role.Can(domain.CapManageAvailability) {
		return nil, ErrForbidden
	}
	// Doctors manage only their own schedule; admins manage any.
	if caller.Role == domain.RoleDoctor && !caller.IsSelfDoctor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	doc, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doc.IsActive {
		return nil, doctor.ErrDoctorInactive
	}

	slotMins := cmd.SlotDurationMins
	if slotMins == 0 {
		slotMins = doc.SlotDurationMins
	}

	// All validation happens here, before any write.
	day, err := availability.NewDay(cmd.DoctorID, cmd.Date, cmd.Hours, slotMins, cmd.Pattern)
	if err != nil {
		return nil, err
	}

	existing, err := s.ledger.GetByDoctorAndDate(ctx, cmd.DoctorID, day.Date)
	switch {
	case err == nil:
		if existing.HasBookedSlots() && !cmd.Force {
			return nil, availability.ErrDayHasBookings
		}
	case errors.Is(err, availability.ErrDayNotFound):
		// first definition for this date
	default:
		return nil, fmt.Errorf("loading availability: %w", err)
	}

	if err := s.ledger.Replace(ctx, day); err != nil {
		s.log.Error("failed to store availability",
			zap.String("doctor_id", cmd.DoctorID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("storing availability: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SlotsGenerated.Add(float64(len(day.Slots)))
	}

	if day.IsRecurring() {
		s.projector.Enqueue(ProjectionJob{
			DoctorID:         cmd.DoctorID,
			BaseDate:         day.Date,
			Hours:            cmd.Hours,
			SlotDurationMins: slotMins,
			Pattern:          day.RecurringPattern,
			Occurrences:      s.horizon,
		})
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "availability",
		ResourceID:   cmd.DoctorID.String() + "/" + day.Date.Format("2006-01-02"),
		IPAddress:    caller.IP,
	})

	s.log.Info("availability set",
		zap.String("doctor_id", cmd.DoctorID.String()),
		zap.Time("date", day.Date),
		zap.Int("slots", len(day.Slots)),
		zap.String("pattern", string(day.RecurringPattern)),
	)

	return day, nil
}

// FindFreeSlots returns the doctor's unbooked slots within [from, to]
// inclusive, flattened into one chronological sequence. An empty result is
// not an error.
func (s *AvailabilityService) FindFreeSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.FreeSlot, error) {
	if to.Before(from) {
		return nil, &ValidationError{Fields: []string{"date range end must not precede start"}}
	}

	days, err := s.ledger.ListRange(ctx, doctorID, availability.TruncateToDay(from), availability.TruncateToDay(to))
	if err != nil {
		return nil, fmt.Errorf("listing availability: %w", err)
	}

	free := []availability.FreeSlot{}
	for i := range days {
		day := &days[i]
		for j := range day.Slots {
			slot := &day.Slots[j]
			if slot.IsBooked {
				continue
			}
			free = append(free, availability.FreeSlot{
				SlotID:       slot.ID,
				DoctorID:     day.DoctorID,
				Date:         day.Date,
				Start:        slot.StartTime,
				End:          slot.EndTime,
				DurationMins: day.SlotDurationMins,
			})
		}
	}

	return free, nil
}

// RemoveAvailability deletes a doctor's schedule for one date. Days with
// booked slots are protected unless force is passed.
func (s *AvailabilityService) RemoveAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, force bool, caller Caller) error {
	if !caller.Role.Can(domain.CapManageAvailability) {
		return ErrForbidden
	}
	if caller.Role == domain.RoleDoctor && !caller.IsSelfDoctor(doctorID) {
		return ErrForbidden
	}

	day, err := s.ledger.GetByDoctorAndDate(ctx, doctorID, availability.TruncateToDay(date))
	if err != nil {
		return err
	}
	if day.HasBookedSlots() && !force {
		return availability.ErrDayHasBookings
	}

	if err := s.ledger.Delete(ctx, doctorID, day.Date); err != nil {
		return fmt.Errorf("deleting availability: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "availability",
		ResourceID:   doctorID.String() + "/" + day.Date.Format("2006-01-02"),
		IPAddress:    caller.IP,
	})

	return nil
}
