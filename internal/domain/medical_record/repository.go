package medical_record

import (
	"context"

	"github.com/google/uuid"
)

// Repository exposes no update or delete. Records are written once; addenda
// are the only thing appended afterwards.
type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*MedicalRecord, error)
	List(ctx context.Context, q *ListRecordsQuery) (*PagedRecords, error)
	AddAddendum(ctx context.Context, a *Addendum) error
}
