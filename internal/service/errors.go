package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain"
)

var (
	ErrForbidden          = errors.New("forbidden: insufficient permissions")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Caller identifies who is performing a service operation, resolved from the
// JWT claims at the HTTP boundary. Permission checks go through the role
// capability table exactly once per operation.
type Caller struct {
	UserID    uuid.UUID
	Role      domain.Role
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	IP        string
}

// IsSelfPatient reports whether the caller is the patient with the given id.
func (c Caller) IsSelfPatient(patientID uuid.UUID) bool {
	return c.PatientID != nil && *c.PatientID == patientID
}

// IsSelfDoctor reports whether the caller is the doctor with the given id.
func (c Caller) IsSelfDoctor(doctorID uuid.UUID) bool {
	return c.DoctorID != nil && *c.DoctorID == doctorID
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	StatusCode   int
	Changes      string
}
