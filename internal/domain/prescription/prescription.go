package prescription

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	StatusActive    PrescriptionStatus = "active"
	StatusDispensed PrescriptionStatus = "dispensed"
	StatusExpired   PrescriptionStatus = "expired"
	StatusCancelled PrescriptionStatus = "cancelled"
	StatusOnHold    PrescriptionStatus = "on_hold"
)

type RouteOfAdministration string

const (
	RouteOral          RouteOfAdministration = "oral"
	RouteIntravenous   RouteOfAdministration = "intravenous"
	RouteIntramuscular RouteOfAdministration = "intramuscular"
	RouteSubcutaneous  RouteOfAdministration = "subcutaneous"
	RouteTopical       RouteOfAdministration = "topical"
	RouteInhaled       RouteOfAdministration = "inhaled"
	RouteOphthalmic    RouteOfAdministration = "ophthalmic"
)

// Prescription is a medication order issued by a doctor. The refill counters
// and the status column are the only mutable parts; everything else is fixed
// at issue time.
type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`

	MedicationName  string                `gorm:"column:medication_name;type:varchar(255);not null;index"`
	GenericName     string                `gorm:"column:generic_name;type:varchar(255)"`
	DosageAmount    string                `gorm:"column:dosage_amount;type:varchar(50);not null"`
	DosageFrequency string                `gorm:"column:dosage_frequency;type:varchar(100);not null"`
	Route           RouteOfAdministration `gorm:"column:route;type:varchar(50);not null"`
	Duration        string                `gorm:"column:duration;type:varchar(100)"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	RefillsAllowed  int                   `gorm:"column:refills_allowed;default:0"`
	RefillsUsed     int                   `gorm:"column:refills_used;default:0"`

	IsControlledSubstance bool `gorm:"column:is_controlled_substance;default:false;index"`
	DEASchedule           *int `gorm:"column:dea_schedule"`

	IssuedAt  time.Time `gorm:"column:issued_at;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`

	Status PrescriptionStatus `gorm:"column:status;type:varchar(30);not null;default:'active';index"`

	Instructions string   `gorm:"column:instructions;type:text"`
	Warnings     []string `gorm:"column:warnings;serializer:json"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

func (p *Prescription) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

func (p *Prescription) RemainingRefills() int {
	if n := p.RefillsAllowed - p.RefillsUsed; n > 0 {
		return n
	}
	return 0
}

// IsRefillable reports whether a refill may be dispensed right now: the
// prescription must be active, unexpired, and have refills remaining.
func (p *Prescription) IsRefillable() bool {
	return p.Status == StatusActive && !p.IsExpired() && p.RemainingRefills() > 0
}

// Refill consumes one refill. Consuming the last one moves the prescription
// to dispensed so it cannot be refilled again.
func (p *Prescription) Refill() error {
	if !p.IsRefillable() {
		return ErrNotRefillable
	}
	p.RefillsUsed++
	if p.RemainingRefills() == 0 {
		p.Status = StatusDispensed
	}
	return nil
}

type CreatePrescriptionCommand struct {
	PatientID             uuid.UUID
	DoctorID              uuid.UUID
	AppointmentID         *uuid.UUID
	MedicationName        string
	GenericName           string
	DosageAmount          string
	DosageFrequency       string
	Route                 RouteOfAdministration
	Duration              string
	Quantity              int
	RefillsAllowed        int
	IsControlledSubstance bool
	DEASchedule           *int
	IssuedAt              time.Time
	ExpiresAt             time.Time
	Instructions          string
	Warnings              []string
	CreatedBy             uuid.UUID
}

// Validate enforces the controlled-substance rule: a controlled medication
// must carry a DEA schedule between 1 and 5.
func (c *CreatePrescriptionCommand) Validate() error {
	if c.IsControlledSubstance {
		if c.DEASchedule == nil || *c.DEASchedule < 1 || *c.DEASchedule > 5 {
			return ErrInvalidDEASchedule
		}
	}
	return nil
}

// New builds an active prescription from a validated command.
func New(cmd *CreatePrescriptionCommand, createdBy uuid.UUID) *Prescription {
	return &Prescription{
		PatientID:             cmd.PatientID,
		DoctorID:              cmd.DoctorID,
		AppointmentID:         cmd.AppointmentID,
		MedicationName:        cmd.MedicationName,
		GenericName:           cmd.GenericName,
		DosageAmount:          cmd.DosageAmount,
		DosageFrequency:       cmd.DosageFrequency,
		Route:                 cmd.Route,
		Duration:              cmd.Duration,
		Quantity:              cmd.Quantity,
		RefillsAllowed:        cmd.RefillsAllowed,
		IsControlledSubstance: cmd.IsControlledSubstance,
		DEASchedule:           cmd.DEASchedule,
		IssuedAt:              cmd.IssuedAt,
		ExpiresAt:             cmd.ExpiresAt,
		Status:                StatusActive,
		Instructions:          cmd.Instructions,
		Warnings:              cmd.Warnings,
		CreatedBy:             createdBy,
	}
}

type ListPrescriptionsQuery struct {
	PatientID             *uuid.UUID
	DoctorID              *uuid.UUID
	Status                *PrescriptionStatus
	IsControlledSubstance *bool
	Page                  int
	PageSize              int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
