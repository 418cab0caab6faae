package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChangeKind tells the recipient what happened to the appointment.
type ChangeKind string

const (
	KindBooked        ChangeKind = "booked"
	KindStatusChanged ChangeKind = "status_changed"
	KindCancelled     ChangeKind = "cancelled"
	KindReminder      ChangeKind = "reminder"
)

// Party is one recipient of an appointment notification.
type Party struct {
	Name  string
	Email string
}

// Message carries everything needed to notify both sides of an appointment.
type Message struct {
	Kind          ChangeKind
	AppointmentID uuid.UUID
	Patient       Party
	Doctor        Party
	StartsAt      time.Time
	DurationMins  int
	Detail        string // e.g. the new status or cancellation reason
}

// Notifier delivers appointment notifications. Delivery is best-effort:
// callers dispatch asynchronously and log failures, they never propagate.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Nop discards all notifications. Used when delivery is disabled and in tests.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
