package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicore/clinicore/internal/domain/prescription"
)

type prescriptionRepo struct {
	db *gorm.DB
}

func NewPrescriptionRepo(db *gorm.DB) prescription.Repository {
	return &prescriptionRepo{db: db}
}

func (r *prescriptionRepo) Create(ctx context.Context, p *prescription.Prescription) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *prescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status prescription.PrescriptionStatus) error {
	res := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

// Refill increments the refill counter inside a transaction so concurrent
// refill requests cannot exceed the allowed count.
func (r *prescriptionRepo) Refill(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return prescription.ErrPrescriptionNotFound
			}
			return err
		}

		if !p.IsRefillable() {
			return prescription.ErrNotRefillable
		}

		res := tx.Model(&prescription.Prescription{}).
			Where("id = ? AND refills_used < refills_allowed AND status = ? AND expires_at > ?",
				id, prescription.StatusActive, time.Now()).
			Update("refills_used", gorm.Expr("refills_used + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return prescription.ErrNotRefillable
		}

		p.RefillsUsed++
		if p.RemainingRefills() == 0 {
			p.Status = prescription.StatusDispensed
			if err := tx.Model(&prescription.Prescription{}).
				Where("id = ?", id).
				Update("status", prescription.StatusDispensed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepo) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	db := r.db.WithContext(ctx).Model(&prescription.Prescription{}).Where("deleted_at IS NULL")

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.IsControlledSubstance != nil {
		db = db.Where("is_controlled_substance = ?", *q.IsControlledSubstance)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*prescription.Prescription
	err := db.Order("issued_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: items,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

func (r *prescriptionRepo) GetActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	var items []*prescription.Prescription
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ? AND expires_at > ? AND deleted_at IS NULL",
			patientID, prescription.StatusActive, time.Now()).
		Order("issued_at DESC").
		Find(&items).Error
	return items, err
}
