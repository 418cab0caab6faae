package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/availability"
)

// DayHours is one weekday's working window. Disabled days generate no slots.
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"` // "HH:MM"
	End     string `json:"end,omitempty"`
}

// WeeklyHours is indexed by time.Weekday (0 = Sunday).
type WeeklyHours [7]DayHours

// HoursFor returns the working window for a weekday, if the doctor works it.
func (w WeeklyHours) HoursFor(day time.Weekday) (availability.WorkingHours, bool) {
	h := w[int(day)]
	if !h.Enabled {
		return availability.WorkingHours{}, false
	}
	return availability.WorkingHours{Start: h.Start, End: h.End}, true
}

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	FirstName     string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName      string `gorm:"column:last_name;type:varchar(100);not null"`
	Specialty     string `gorm:"column:specialty;type:varchar(100);not null;index"`
	LicenseNumber string `gorm:"column:license_number;type:varchar(50);uniqueIndex"`

	Phone string `gorm:"column:phone;type:varchar(20)"`
	Email string `gorm:"column:email;type:varchar(255)"`

	// Per-weekday working hours the slot generator reads from.
	WeeklyHours WeeklyHours `gorm:"column:weekly_hours;serializer:json"`
	// Default appointment length for this doctor's generated slots.
	SlotDurationMins int `gorm:"column:slot_duration_mins;not null;default:30"`

	IsActive bool `gorm:"column:is_active;default:true;index"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type CreateDoctorCommand struct {
	FirstName        string
	LastName         string
	Specialty        string
	LicenseNumber    string
	Phone            string
	Email            string
	WeeklyHours      WeeklyHours
	SlotDurationMins int
	CreatedBy        uuid.UUID
}

type UpdateWorkingHoursCommand struct {
	WeeklyHours      *WeeklyHours
	SlotDurationMins *int
	UpdatedBy        uuid.UUID
}

type ListDoctorsQuery struct {
	Specialty *string
	Active    *bool
	Page      int
	PageSize  int
}

type PagedDoctors struct {
	Doctors    []*Doctor
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
