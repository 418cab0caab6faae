package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/handler/v1"
	"github.com/clinicore/clinicore/internal/jobs"
	"github.com/clinicore/clinicore/internal/repository/postgres"
	"github.com/clinicore/clinicore/internal/service"
	"github.com/clinicore/clinicore/pkg/auth"
	"github.com/clinicore/clinicore/pkg/database"
	"github.com/clinicore/clinicore/pkg/logger"
	"github.com/clinicore/clinicore/pkg/metrics"
	"github.com/clinicore/clinicore/pkg/notify"
	"github.com/clinicore/clinicore/pkg/riskml"
	"github.com/clinicore/clinicore/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	m := metrics.NewCollector(cfg.App.Name)
	if sqlDB, err := db.DB(); err == nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				m.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	jwtManager := auth.NewJWTManager(cfg.JWT)

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	patientRepo := postgres.NewPatientRepo(db)
	doctorRepo := postgres.NewDoctorRepo(db)
	availabilityRepo := postgres.NewAvailabilityRepo(db)
	appointmentRepo := postgres.NewAppointmentRepo(db)
	recordRepo := postgres.NewMedicalRecordRepo(db)
	prescriptionRepo := postgres.NewPrescriptionRepo(db)

	// Outbound integrations
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notification.Enabled && cfg.Notification.SendGridAPIKey != "" {
		notifier = notify.NewEmailNotifier(cfg.Notification)
	}
	var predictor service.RiskPredictor
	if cfg.RiskML.Enabled {
		predictor = riskml.NewClient(cfg.RiskML)
	}

	// Services
	auditSvc := service.NewAuditService(auditRepo, m, log)
	projector := service.NewRecurrenceProjector(availabilityRepo, m, log, cfg.Scheduling.ProjectorBufferSize)
	authSvc := service.NewAuthService(userRepo, jwtManager, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, m, log)
	doctorSvc := service.NewDoctorService(doctorRepo, auditSvc, log)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, doctorRepo, projector, auditSvc, m, cfg.Scheduling.RecurrenceHorizon, log)
	schedulerSvc := service.NewSchedulerService(appointmentRepo, availabilityRepo, patientRepo, doctorRepo, notifier, auditSvc, m, log)
	recordSvc := service.NewMedicalRecordService(recordRepo, patientRepo, auditSvc, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, patientRepo, auditSvc, log)
	riskSvc := service.NewRiskService(predictor, patientRepo, auditSvc, log)

	// Background jobs
	reminder := jobs.NewReminderJob(cfg.Jobs, appointmentRepo, patientRepo, doctorRepo, notifier, m, log)
	if err := reminder.Start(); err != nil {
		return fmt.Errorf("starting reminder job: %w", err)
	}

	router := v1.NewRouter(cfg, jwtManager, m, log, v1.Handlers{
		Auth:          v1.NewAuthHandler(authSvc),
		Patient:       v1.NewPatientHandler(patientSvc, riskSvc),
		Doctor:        v1.NewDoctorHandler(doctorSvc, availabilitySvc),
		Appointment:   v1.NewAppointmentHandler(schedulerSvc),
		MedicalRecord: v1.NewMedicalRecordHandler(recordSvc),
		Prescription:  v1.NewPrescriptionHandler(prescriptionSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}

	// Drain background workers after the listener stops accepting requests.
	reminder.Stop()
	projector.Shutdown()
	auditSvc.Shutdown()

	log.Info("stopped")
	return nil
}
