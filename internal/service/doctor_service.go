package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorService struct {
	repo     doctor.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDoctorService(repo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *DoctorService) CreateDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, caller Caller) (*doctor.Doctor, error) {
	if !caller.Role.Can(domain.CapManageDoctors) {
		return nil, ErrForbidden
	}
	if err := validateCreateDoctorCommand(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByLicense(ctx, cmd.LicenseNumber)
	if err != nil {
		s.log.Error("failed to check license uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking license uniqueness: %w", err)
	}
	if exists {
		return nil, doctor.ErrDoctorAlreadyExists
	}

	slotDuration := cmd.SlotDurationMins
	if slotDuration <= 0 {
		slotDuration = 30
	}

	d := &doctor.Doctor{
		FirstName:        strings.TrimSpace(cmd.FirstName),
		LastName:         strings.TrimSpace(cmd.LastName),
		Specialty:        strings.TrimSpace(cmd.Specialty),
		LicenseNumber:    strings.TrimSpace(cmd.LicenseNumber),
		Phone:            strings.TrimSpace(cmd.Phone),
		Email:            strings.ToLower(strings.TrimSpace(cmd.Email)),
		WeeklyHours:      cmd.WeeklyHours,
		SlotDurationMins: slotDuration,
		IsActive:         true,
		CreatedBy:        caller.UserID,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.log.Error("failed to create doctor", zap.Error(err))
		return nil, fmt.Errorf("creating doctor: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("doctor created",
		zap.String("doctor_id", d.ID.String()),
		zap.String("specialty", d.Specialty),
	)

	return d, nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateWorkingHours replaces a doctor's weekly template and/or default slot
// duration. Already generated availability days are untouched; the new
// template only affects days generated after this call.
func (s *DoctorService) UpdateWorkingHours(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateWorkingHoursCommand, caller Caller) (*doctor.Doctor, error) {
	if !caller.Role.Can(domain.CapManageAvailability) {
		return nil, ErrForbidden
	}
	if caller.Role == domain.RoleDoctor && !caller.IsSelfDoctor(id) {
		return nil, ErrForbidden
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.WeeklyHours != nil {
		if err := validateWeeklyHours(*cmd.WeeklyHours); err != nil {
			return nil, err
		}
		d.WeeklyHours = *cmd.WeeklyHours
	}
	if cmd.SlotDurationMins != nil {
		if *cmd.SlotDurationMins <= 0 {
			return nil, availability.ErrInvalidSlotDuration
		}
		d.SlotDurationMins = *cmd.SlotDurationMins
	}

	if err := s.repo.UpdateWorkingHours(ctx, d); err != nil {
		s.log.Error("failed to update working hours", zap.Error(err))
		return nil, fmt.Errorf("updating working hours: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
		Changes:      `{"action":"working_hours_updated"}`,
	})

	return d, nil
}

func (s *DoctorService) ListDoctors(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// DefaultHoursFor resolves a doctor's template window for a given date.
func (s *DoctorService) DefaultHoursFor(ctx context.Context, id uuid.UUID, date time.Time) (availability.WorkingHours, bool, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return availability.WorkingHours{}, false, err
	}
	hours, ok := d.WeeklyHours.HoursFor(date.Weekday())
	return hours, ok, nil
}

func validateCreateDoctorCommand(cmd *doctor.CreateDoctorCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if strings.TrimSpace(cmd.Specialty) == "" {
		errs = append(errs, "specialty is required")
	}
	if strings.TrimSpace(cmd.LicenseNumber) == "" {
		errs = append(errs, "license_number is required")
	}
	if err := validateWeeklyHours(cmd.WeeklyHours); err != nil {
		errs = append(errs, "weekly_hours is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateWeeklyHours(w doctor.WeeklyHours) error {
	for _, day := range w {
		if !day.Enabled {
			continue
		}
		hours := availability.WorkingHours{Start: day.Start, End: day.End}
		if err := hours.Validate(); err != nil {
			return err
		}
	}
	return nil
}
