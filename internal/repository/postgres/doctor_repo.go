package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicore/clinicore/internal/domain/doctor"
)

type doctorRepo struct {
	db *gorm.DB
}

func NewDoctorRepo(db *gorm.DB) doctor.Repository {
	return &doctorRepo{db: db}
}

func (r *doctorRepo) Create(ctx context.Context, d *doctor.Doctor) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return doctor.ErrDoctorAlreadyExists
	}
	return err
}

func (r *doctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepo) List(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	db := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("deleted_at IS NULL")

	if q.Specialty != nil {
		db = db.Where("specialty = ?", *q.Specialty)
	}
	if q.Active != nil {
		db = db.Where("is_active = ?", *q.Active)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*doctor.Doctor
	err := db.Order("last_name ASC, first_name ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &doctor.PagedDoctors{
		Doctors:    items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *doctorRepo) UpdateWorkingHours(ctx context.Context, d *doctor.Doctor) error {
	// Struct-based update so the weekly_hours JSON serializer applies.
	res := r.db.WithContext(ctx).Model(d).
		Select("weekly_hours", "slot_duration_mins").
		Updates(d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepo) ExistsByLicense(ctx context.Context, licenseNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
		Where("license_number = ? AND deleted_at IS NULL", licenseNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
