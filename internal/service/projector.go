package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/pkg/metrics"
)

// ProjectionJob asks for one recurring availability definition to be
// projected across its future occurrences.
type ProjectionJob struct {
	DoctorID         uuid.UUID
	BaseDate         time.Time
	Hours            availability.WorkingHours
	SlotDurationMins int
	Pattern          availability.RecurrencePattern
	Occurrences      int
}

// RecurrenceProjector generates future AvailabilityDay records in the
// background so SetAvailability can respond immediately. Each projected date
// is independent: a failure on one date is logged and counted, the remaining
// dates still run. Existing days are never overwritten, so re-projection
// cannot disturb bookings.
type RecurrenceProjector struct {
	ledger  availability.Repository
	log     *zap.Logger
	metrics *metrics.Collector
	jobs    chan ProjectionJob
	done    chan struct{}
}

func NewRecurrenceProjector(ledger availability.Repository, m *metrics.Collector, log *zap.Logger, bufferSize int) *RecurrenceProjector {
	p := &RecurrenceProjector{
		ledger:  ledger,
		log:     log,
		metrics: m,
		jobs:    make(chan ProjectionJob, bufferSize),
		done:    make(chan struct{}),
	}
	go p.worker()
	return p
}

// Enqueue submits a job without blocking. A full queue drops the job with a
// warning rather than stalling the caller's request.
func (p *RecurrenceProjector) Enqueue(job ProjectionJob) {
	select {
	case p.jobs <- job:
	default:
		p.log.Warn("projection queue full, dropping job",
			zap.String("doctor_id", job.DoctorID.String()),
			zap.Time("base_date", job.BaseDate),
		)
		if p.metrics != nil {
			p.metrics.ProjectionDropped.Inc()
		}
	}
}

// Shutdown stops accepting jobs and waits for the queue to drain.
func (p *RecurrenceProjector) Shutdown() {
	close(p.jobs)
	select {
	case <-p.done:
	case <-time.After(30 * time.Second):
		p.log.Warn("recurrence projector shutdown timed out; queued projections may be lost")
	}
}

func (p *RecurrenceProjector) worker() {
	defer close(p.done)
	for job := range p.jobs {
		p.project(job)
	}
}

func (p *RecurrenceProjector) project(job ProjectionJob) {
	dates, err := availability.OccurrenceDates(job.BaseDate, job.Pattern, job.Occurrences)
	if err != nil {
		p.log.Error("invalid projection job", zap.Error(err),
			zap.String("pattern", string(job.Pattern)),
		)
		return
	}

	for _, date := range dates {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := p.projectDate(ctx, job, date)
		cancel()

		if err != nil {
			p.log.Error("failed to project availability",
				zap.String("doctor_id", job.DoctorID.String()),
				zap.Time("date", date),
				zap.Error(err),
			)
			if p.metrics != nil {
				p.metrics.ProjectionFailures.Inc()
			}
			continue
		}
		if created && p.metrics != nil {
			p.metrics.ProjectedDays.Inc()
		}
	}
}

func (p *RecurrenceProjector) projectDate(ctx context.Context, job ProjectionJob, date time.Time) (bool, error) {
	day, err := availability.NewDay(job.DoctorID, date, job.Hours, job.SlotDurationMins, job.Pattern)
	if err != nil {
		return false, err
	}
	return p.ledger.CreateIfAbsent(ctx, day)
}
