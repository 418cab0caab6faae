package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicore/clinicore/internal/domain"
	mr "github.com/clinicore/clinicore/internal/domain/medical_record"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/prescription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MedicalRecordService struct {
	repo        mr.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewMedicalRecordService(repo mr.Repository, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *MedicalRecordService {
	return &MedicalRecordService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

func (s *MedicalRecordService) CreateRecord(ctx context.Context, cmd *mr.CreateRecordCommand, caller Caller) (*mr.MedicalRecord, error) {
	if !caller.Role.Can(domain.CapWriteClinicalRecords) {
		return nil, ErrForbidden
	}
	if !cmd.Type.IsValid() {
		return nil, &ValidationError{Fields: []string{"type is invalid"}}
	}

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	// One primary record per appointment; corrections go through addenda.
	if cmd.AppointmentID != nil {
		existing, err := s.repo.GetByAppointmentID(ctx, *cmd.AppointmentID)
		if err != nil && !errors.Is(err, mr.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking appointment record: %w", err)
		}
		if existing != nil {
			return nil, mr.ErrDuplicateRecord
		}
	}

	record := &mr.MedicalRecord{
		PatientID:     cmd.PatientID,
		AppointmentID: cmd.AppointmentID,
		DoctorID:      cmd.DoctorID,
		Type:          cmd.Type,
		SOAPNote:      cmd.SOAPNote,
		Vitals:        cmd.Vitals,
		Diagnoses:     cmd.Diagnoses,
		Notes:         cmd.Notes,
		CreatedBy:     caller.UserID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating medical record: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "medical_record",
		ResourceID:   record.ID.String(),
		IPAddress:    caller.IP,
	})

	return record, nil
}

func (s *MedicalRecordService) GetRecord(ctx context.Context, id uuid.UUID, caller Caller) (*mr.MedicalRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Role == domain.RolePatient && !caller.IsSelfPatient(record.PatientID) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "medical_record", ResourceID: id.String(), IPAddress: caller.IP,
	})

	return record, nil
}

// AddAddendum appends a correction to an existing record without modifying it.
func (s *MedicalRecordService) AddAddendum(ctx context.Context, cmd *mr.AddAddendumCommand, caller Caller) (*mr.Addendum, error) {
	if !caller.Role.Can(domain.CapWriteClinicalRecords) {
		return nil, ErrForbidden
	}

	addendum := &mr.Addendum{
		MedicalRecordID: cmd.MedicalRecordID,
		Content:         cmd.Content,
		CreatedBy:       caller.UserID,
	}

	if err := s.repo.AddAddendum(ctx, addendum); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "medical_record", ResourceID: cmd.MedicalRecordID.String(), IPAddress: caller.IP,
		Changes: `{"action":"addendum_added"}`,
	})

	return addendum, nil
}

func (s *MedicalRecordService) ListRecords(ctx context.Context, q *mr.ListRecordsQuery, caller Caller) (*mr.PagedRecords, error) {
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = caller.PatientID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.repo.List(ctx, q)
}

type PrescriptionService struct {
	repo        prescription.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewPrescriptionService(repo prescription.Repository, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

func (s *PrescriptionService) CreatePrescription(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, caller Caller) (*prescription.Prescription, error) {
	if !caller.Role.Can(domain.CapPrescribe) {
		return nil, ErrForbidden
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	p := prescription.New(cmd, caller.UserID)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "prescription", ResourceID: p.ID.String(), IPAddress: caller.IP,
	})

	return p, nil
}

// RefillPrescription processes a refill request.
func (s *PrescriptionService) RefillPrescription(ctx context.Context, id uuid.UUID, caller Caller) (*prescription.Prescription, error) {
	if !caller.Role.Can(domain.CapPrescribe) {
		return nil, ErrForbidden
	}

	updated, err := s.repo.Refill(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "prescription", ResourceID: id.String(), IPAddress: caller.IP,
		Changes: `{"action":"refill"}`,
	})

	return updated, nil
}
