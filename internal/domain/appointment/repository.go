package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists the status fields of an already-transitioned
	// appointment (status, cancellation and completion tracking).
	UpdateStatus(ctx context.Context, a *Appointment) error

	// GetUpcoming returns non-terminal appointments starting within the next
	// N hours — used by the reminder job.
	GetUpcoming(ctx context.Context, withinHours int) ([]*Appointment, error)
}
