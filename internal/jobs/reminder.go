package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/pkg/metrics"
	"github.com/clinicore/clinicore/pkg/notify"
)

// ReminderJob periodically mails reminders for appointments starting soon.
type ReminderJob struct {
	cfg         config.JobsConfig
	apptRepo    appointment.Repository
	patientRepo patient.Repository
	doctorRepo  doctor.Repository
	notifier    notify.Notifier
	metrics     *metrics.Collector
	log         *zap.Logger

	cron *cron.Cron

	// appointment IDs already reminded; guarded by mu because the cron
	// scheduler and Stop may touch it from different goroutines
	mu   sync.Mutex
	sent map[string]time.Time
}

func NewReminderJob(
	cfg config.JobsConfig,
	apptRepo appointment.Repository,
	patientRepo patient.Repository,
	doctorRepo doctor.Repository,
	notifier notify.Notifier,
	m *metrics.Collector,
	log *zap.Logger,
) *ReminderJob {
	return &ReminderJob{
		cfg:         cfg,
		apptRepo:    apptRepo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		notifier:    notifier,
		metrics:     m,
		log:         log,
		// SkipIfStillRunning drops a tick while the previous sweep is
		// still sending, so run never overlaps itself.
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(log))),
		)),
		sent: make(map[string]time.Time),
	}
}

func (j *ReminderJob) Start() error {
	if _, err := j.cron.AddFunc(j.cfg.ReminderSchedule, j.run); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("reminder job scheduled", zap.String("schedule", j.cfg.ReminderSchedule))
	return nil
}

func (j *ReminderJob) Stop() {
	ctx := j.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		j.log.Warn("reminder job stop timed out")
	}
}

func (j *ReminderJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	j.prune()

	upcoming, err := j.apptRepo.GetUpcoming(ctx, j.cfg.ReminderWindowHours)
	if err != nil {
		j.log.Error("failed to load upcoming appointments", zap.Error(err))
		return
	}

	for _, a := range upcoming {
		id := a.ID.String()
		if !j.claim(id, a.ScheduledAt) {
			continue
		}
		if err := j.remind(ctx, a); err != nil {
			// Release the claim so the next sweep retries.
			j.release(id)
			if j.metrics != nil {
				j.metrics.RemindersFailed.Inc()
			}
			j.log.Warn("reminder failed",
				zap.String("appointment_id", id),
				zap.Error(err),
			)
			continue
		}
		if j.metrics != nil {
			j.metrics.RemindersSent.Inc()
		}
	}
}

// claim marks an appointment as reminded. It reports false when some other
// sweep already holds the entry, so at most one reminder goes out even if
// two sweeps observe the same appointment.
func (j *ReminderJob) claim(id string, at time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, done := j.sent[id]; done {
		return false
	}
	j.sent[id] = at
	return true
}

func (j *ReminderJob) release(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.sent, id)
}

func (j *ReminderJob) remind(ctx context.Context, a *appointment.Appointment) error {
	p, err := j.patientRepo.GetByID(ctx, a.PatientID)
	if err != nil {
		return err
	}
	d, err := j.doctorRepo.GetByID(ctx, a.DoctorID)
	if err != nil {
		return err
	}

	return j.notifier.Send(ctx, notify.Message{
		Kind:          notify.KindReminder,
		AppointmentID: a.ID,
		Patient:       notify.Party{Name: p.FullName(), Email: p.Email},
		Doctor:        notify.Party{Name: d.FullName(), Email: d.Email},
		StartsAt:      a.ScheduledAt,
		DurationMins:  a.DurationMins,
	})
}

// prune drops dedupe entries for appointments already in the past.
func (j *ReminderJob) prune() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for id, at := range j.sent {
		if at.Before(now) {
			delete(j.sent, id)
		}
	}
}
