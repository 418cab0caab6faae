package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, q *ListDoctorsQuery) (*PagedDoctors, error)
	// UpdateWorkingHours persists the weekly template fields of an already
	// validated doctor.
	UpdateWorkingHours(ctx context.Context, d *Doctor) error
	ExistsByLicense(ctx context.Context, licenseNumber string) (bool, error)
}
