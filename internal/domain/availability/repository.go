package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the availability ledger: the authoritative per-doctor,
// per-date record of slots and their booked state. Slot mutation happens
// only through ReserveSlot, ReleaseSlot, and Replace.
type Repository interface {
	// GetByDoctorAndDate loads one day with its slots ordered by start time.
	// Returns ErrDayNotFound when no day exists for that (doctor, date).
	GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityDay, error)

	// Replace upserts a day, discarding any previously generated slots for
	// that (doctor, date) in the same transaction.
	Replace(ctx context.Context, day *AvailabilityDay) error

	// CreateIfAbsent inserts a day only when none exists yet for its
	// (doctor, date); reports whether a row was created. Used by recurrence
	// projection so re-projection never disturbs existing bookings.
	CreateIfAbsent(ctx context.Context, day *AvailabilityDay) (bool, error)

	// ListRange returns the doctor's days within [from, to] inclusive,
	// ordered by date, slots ordered by start time.
	ListRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AvailabilityDay, error)

	// ReserveSlot atomically books the free slot covering [start, end] on the
	// doctor's day and links it to the appointment. The check-and-set is a
	// single conditional update: of two concurrent reservations for the same
	// slot exactly one succeeds, the other gets ErrSlotUnavailable.
	ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time, appointmentID uuid.UUID) error

	// ReleaseSlot frees whichever slot is linked to the appointment.
	// No-op when no slot is linked.
	ReleaseSlot(ctx context.Context, appointmentID uuid.UUID) error

	// Delete removes a day and its slots. Explicit doctor action only;
	// booked days are protected at the service layer.
	Delete(ctx context.Context, doctorID uuid.UUID, date time.Time) error
}
