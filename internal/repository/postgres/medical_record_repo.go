package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	mr "github.com/clinicore/clinicore/internal/domain/medical_record"
)

type medicalRecordRepo struct {
	db *gorm.DB
}

func NewMedicalRecordRepo(db *gorm.DB) mr.Repository {
	return &medicalRecordRepo{db: db}
}

func (r *medicalRecordRepo) Create(ctx context.Context, record *mr.MedicalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *medicalRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	var record mr.MedicalRecord
	err := r.db.WithContext(ctx).
		Preload("Addenda", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mr.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepo) AddAddendum(ctx context.Context, a *mr.Addendum) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&mr.MedicalRecord{}).
			Where("id = ?", a.MedicalRecordID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return mr.ErrRecordNotFound
		}
		return tx.Create(a).Error
	})
}

func (r *medicalRecordRepo) List(ctx context.Context, q *mr.ListRecordsQuery) (*mr.PagedRecords, error) {
	db := r.db.WithContext(ctx).Model(&mr.MedicalRecord{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.AppointmentID != nil {
		db = db.Where("appointment_id = ?", *q.AppointmentID)
	}
	if q.DateFrom != nil {
		db = db.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("created_at <= ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*mr.MedicalRecord
	err := db.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &mr.PagedRecords{
		Records:    items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *medicalRecordRepo) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error) {
	var record mr.MedicalRecord
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mr.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}
