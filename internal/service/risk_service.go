package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/pkg/riskml"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RiskPredictor is the slice of the ML client the service needs.
type RiskPredictor interface {
	Predict(ctx context.Context, f riskml.Features) (*riskml.Prediction, error)
}

type RiskService struct {
	predictor   RiskPredictor
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewRiskService(predictor RiskPredictor, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *RiskService {
	return &RiskService{
		predictor:   predictor,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		log:         log,
	}
}

// AssessVitals carries the optional point-in-time measurements submitted with
// an assessment request.
type AssessVitals struct {
	HeartRateBPM       *int
	SystolicBP         *int
	DiastolicBP        *int
	TemperatureCelsius *float64
	WeightKg           *float64
	HeightCm           *float64
}

// AssessPatient scores a patient against the external risk model and stores
// the result on the patient record.
func (s *RiskService) AssessPatient(ctx context.Context, patientID uuid.UUID, vitals AssessVitals, caller Caller) (*riskml.Prediction, error) {
	if !caller.Role.Can(domain.CapRunRiskAssessment) {
		return nil, ErrForbidden
	}
	if s.predictor == nil {
		return nil, riskml.ErrServiceUnavailable
	}

	p, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	features := riskml.Features{
		Age:                ageAt(p.DateOfBirth, time.Now()),
		Gender:             string(p.Gender),
		BloodType:          string(p.BloodType),
		ChronicConditions:  p.ChronicConditions,
		Allergies:          p.Allergies,
		HeartRateBPM:       vitals.HeartRateBPM,
		SystolicBP:         vitals.SystolicBP,
		DiastolicBP:        vitals.DiastolicBP,
		TemperatureCelsius: vitals.TemperatureCelsius,
		WeightKg:           vitals.WeightKg,
		HeightCm:           vitals.HeightCm,
	}

	pred, err := s.predictor.Predict(ctx, features)
	if err != nil {
		s.log.Warn("risk prediction failed",
			zap.String("patient_id", patientID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.patientRepo.UpdateRiskAssessment(ctx, patientID, pred.Score, pred.Level); err != nil {
		return nil, fmt.Errorf("storing risk assessment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   patientID.String(),
		IPAddress:    caller.IP,
		Changes:      fmt.Sprintf(`{"action":"risk_assessed","level":%q}`, pred.Level),
	})

	s.log.Info("patient risk assessed",
		zap.String("patient_id", patientID.String()),
		zap.Float64("score", pred.Score),
		zap.String("level", pred.Level),
	)

	return pred, nil
}

func ageAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}
