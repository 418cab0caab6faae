package medical_record

import (
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	TypeSOAP             RecordType = "soap"
	TypeProgressNote     RecordType = "progress_note"
	TypeProcedureNote    RecordType = "procedure_note"
	TypeLabReport        RecordType = "lab_report"
	TypeTestResult       RecordType = "test_result"
	TypeImagingReport    RecordType = "imaging_report"
	TypeDischargeSummary RecordType = "discharge_summary"
)

func (t RecordType) IsValid() bool {
	switch t {
	case TypeSOAP, TypeProgressNote, TypeProcedureNote, TypeLabReport,
		TypeTestResult, TypeImagingReport, TypeDischargeSummary:
		return true
	}
	return false
}

// SOAPNote is the structured subjective/objective/assessment/plan note.
type SOAPNote struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// Vitals are point-in-time measurements. Every field is optional; nil means
// not measured, which is distinct from zero.
type Vitals struct {
	BloodPressureSystolic  *int     `json:"bp_systolic"`
	BloodPressureDiastolic *int     `json:"bp_diastolic"`
	HeartRateBPM           *int     `json:"heart_rate_bpm"`
	RespiratoryRate        *int     `json:"respiratory_rate_bpm"`
	TemperatureCelsius     *float64 `json:"temperature_celsius"`
	OxygenSaturation       *float64 `json:"oxygen_saturation"`
	WeightKg               *float64 `json:"weight_kg"`
	HeightCm               *float64 `json:"height_cm"`
}

// MedicalRecord is append-only legal documentation. There is no update or
// delete path anywhere in the system; corrections are expressed as addenda
// attached to the original record.
type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;uniqueIndex"`

	Type RecordType `gorm:"column:type;type:varchar(50);not null;index"`

	SOAPNote  *SOAPNote `gorm:"column:soap_note;serializer:json"`
	Vitals    *Vitals   `gorm:"column:vitals;serializer:json"`
	Diagnoses []string  `gorm:"column:diagnoses;serializer:json"`
	Notes     string    `gorm:"column:notes;type:text"`

	Addenda []Addendum `gorm:"foreignKey:MedicalRecordID"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "clinical.medical_records"
}

// Addendum is an append-only correction. The original record stays untouched.
type Addendum struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	MedicalRecordID uuid.UUID `gorm:"column:medical_record_id;type:uuid;not null;index"`
	Content         string    `gorm:"column:content;type:text;not null"`
	CreatedBy       uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Addendum) TableName() string {
	return "clinical.medical_record_addenda"
}

type CreateRecordCommand struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Type          RecordType
	SOAPNote      *SOAPNote
	Vitals        *Vitals
	Diagnoses     []string
	Notes         string
	CreatedBy     uuid.UUID
}

type AddAddendumCommand struct {
	MedicalRecordID uuid.UUID
	Content         string
	CreatedBy       uuid.UUID
}

type ListRecordsQuery struct {
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	AppointmentID *uuid.UUID
	Type          *RecordType
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

type PagedRecords struct {
	Records    []*MedicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
