package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

const (
	TypeConsultation   AppointmentType = "consultation"
	TypeFollowUp       AppointmentType = "follow_up"
	TypeEmergency      AppointmentType = "emergency"
	TypeRoutineCheckup AppointmentType = "routine_checkup"
	TypeProcedure      AppointmentType = "procedure"
	TypeLabResults     AppointmentType = "lab_results"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeRoutineCheckup, TypeProcedure, TypeLabResults:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	scheduled → confirmed | completed | cancelled | no_show | rescheduled
//	confirmed → completed | cancelled | no_show
//	rescheduled → confirmed | completed | cancelled | no_show
//
// cancelled, completed, and no_show are terminal.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// HoldsSlot reports whether the appointment still owns its slot reservation.
// While true, exactly one time slot carries this appointment's id.
func (s AppointmentStatus) HoldsSlot() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	ScheduledAt  time.Time         `gorm:"column:scheduled_at;not null;index"`
	DurationMins int               `gorm:"column:duration_mins;not null;default:30"`
	Type         AppointmentType   `gorm:"column:type;type:varchar(50);not null;index"`
	Status       AppointmentStatus `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index"`

	Reason string `gorm:"column:reason;type:text"`
	Notes  string `gorm:"column:notes;type:text"`
	Room   string `gorm:"column:room;type:varchar(50)"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	CompletedAt        *time.Time `gorm:"column:completed_at"`
	ActualDurationMins *int       `gorm:"column:actual_duration_mins"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusScheduled:   {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
		StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusRescheduled: {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
		StatusCompleted:   {},
		StatusCancelled:   {},
		StatusNoShow:      {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete(actualDurationMins *int) error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	a.ActualDurationMins = actualDurationMins
	return nil
}

type CreateAppointmentCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	ScheduledAt  time.Time
	DurationMins int
	Type         AppointmentType
	Reason       string
	Notes        string
	Room         string
	CreatedBy    uuid.UUID
}

type UpdateStatusCommand struct {
	NewStatus AppointmentStatus
	Reason    string
	UpdatedBy uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	Type      *AppointmentType
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
