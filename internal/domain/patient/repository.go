package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records. Deletion is always soft; clinical
// data retention rules forbid physical removal.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)
	UpdateRiskAssessment(ctx context.Context, id uuid.UUID, score float64, level string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)
}
