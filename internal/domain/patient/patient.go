package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type BloodType string

const (
	BloodTypeAPos    BloodType = "A+"
	BloodTypeANeg    BloodType = "A-"
	BloodTypeBPos    BloodType = "B+"
	BloodTypeBNeg    BloodType = "B-"
	BloodTypeABPos   BloodType = "AB+"
	BloodTypeABNeg   BloodType = "AB-"
	BloodTypeOPos    BloodType = "O+"
	BloodTypeONeg    BloodType = "O-"
	BloodTypeUnknown BloodType = "unknown"
)

// Status is the lifecycle state of the patient record, not of the person's
// care. Deceased is terminal; inactive records can be reactivated by an
// update.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeceased Status = "deceased"
)

// ContactInfo is embedded flat into the patients table.
type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`
	City    string `gorm:"column:city;type:varchar(100)"`
	State   string `gorm:"column:state;type:varchar(50)"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)"`
	Country string `gorm:"column:country;type:varchar(100)"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Insurance struct {
	Provider      string `json:"provider"`
	PolicyNumber  string `json:"policy_number"`
	GroupNumber   string `json:"group_number"`
	PrimaryHolder string `json:"primary_holder"`
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null"`
	BloodType   BloodType `gorm:"column:blood_type;type:varchar(5)"`
	NationalID  string    `gorm:"column:national_id;type:varchar(50);uniqueIndex"`

	ContactInfo

	EmergencyContact *EmergencyContact `gorm:"column:emergency_contact;serializer:json"`
	Insurance        *Insurance        `gorm:"column:insurance;serializer:json"`

	Allergies         []string `gorm:"column:allergies;serializer:json"`
	ChronicConditions []string `gorm:"column:chronic_conditions;serializer:json"`

	Status           Status     `gorm:"column:status;type:varchar(20);default:'active';index"`
	AssignedDoctorID *uuid.UUID `gorm:"column:assigned_doctor_id;type:uuid;index"`
	Notes            string     `gorm:"column:notes;type:text"`

	// Latest readmission-risk assessment, nil until the first one runs.
	RiskScore      *float64   `gorm:"column:risk_score"`
	RiskLevel      string     `gorm:"column:risk_level;type:varchar(20)"`
	RiskAssessedAt *time.Time `gorm:"column:risk_assessed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age is the number of whole years since the date of birth.
func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusDeceased {
		return ErrPatientDeceased
	}
	p.Status = StatusInactive
	return nil
}

func (p *Patient) MarkDeceased() {
	p.Status = StatusDeceased
}

// RecordRiskAssessment overwrites the previous assessment; history lives in
// the audit trail, not on the patient row.
func (p *Patient) RecordRiskAssessment(score float64, level string, at time.Time) {
	p.RiskScore = &score
	p.RiskLevel = level
	p.RiskAssessedAt = &at
}

type CreatePatientCommand struct {
	FirstName         string
	LastName          string
	DateOfBirth       time.Time
	Gender            Gender
	BloodType         BloodType
	NationalID        string
	Phone             string
	Email             string
	Address           string
	City              string
	State             string
	ZipCode           string
	Country           string
	EmergencyContact  *EmergencyContact
	Insurance         *Insurance
	Allergies         []string
	ChronicConditions []string
	AssignedDoctorID  *uuid.UUID
	Notes             string
	CreatedBy         uuid.UUID
}

// New builds an active patient from a registration command, normalizing
// whitespace and lowercasing the email.
func New(cmd *CreatePatientCommand, createdBy uuid.UUID) *Patient {
	return &Patient{
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      cmd.Gender,
		BloodType:   cmd.BloodType,
		NationalID:  strings.TrimSpace(cmd.NationalID),
		ContactInfo: ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
			City:    cmd.City,
			State:   cmd.State,
			ZipCode: cmd.ZipCode,
			Country: cmd.Country,
		},
		EmergencyContact:  cmd.EmergencyContact,
		Insurance:         cmd.Insurance,
		Allergies:         cmd.Allergies,
		ChronicConditions: cmd.ChronicConditions,
		AssignedDoctorID:  cmd.AssignedDoctorID,
		Notes:             cmd.Notes,
		Status:            StatusActive,
		CreatedBy:         createdBy,
	}
}

// UpdatePatientCommand uses pointer fields so absent and zero-valued inputs
// can be told apart; nil means leave unchanged.
type UpdatePatientCommand struct {
	FirstName         *string
	LastName          *string
	Gender            *Gender
	BloodType         *BloodType
	Phone             *string
	Email             *string
	Address           *string
	City              *string
	State             *string
	ZipCode           *string
	Country           *string
	EmergencyContact  *EmergencyContact
	Insurance         *Insurance
	Allergies         *[]string
	ChronicConditions *[]string
	AssignedDoctorID  *uuid.UUID
	Notes             *string
	UpdatedBy         uuid.UUID
}

type ListPatientsQuery struct {
	Search           string
	Status           *Status
	AssignedDoctorID *uuid.UUID
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
