package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicore/clinicore/internal/domain/patient"
)

type patientRepo struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) patient.Repository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return patient.ErrPatientAlreadyExists
	}
	return err
}

func (r *patientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepo) GetByNationalID(ctx context.Context, nationalID string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("national_id = ? AND deleted_at IS NULL", nationalID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepo) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.BloodType != nil {
		p.BloodType = *cmd.BloodType
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.State != nil {
		p.State = *cmd.State
	}
	if cmd.ZipCode != nil {
		p.ZipCode = *cmd.ZipCode
	}
	if cmd.Country != nil {
		p.Country = *cmd.Country
	}
	if cmd.EmergencyContact != nil {
		p.EmergencyContact = cmd.EmergencyContact
	}
	if cmd.Insurance != nil {
		p.Insurance = cmd.Insurance
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.ChronicConditions != nil {
		p.ChronicConditions = *cmd.ChronicConditions
	}
	if cmd.AssignedDoctorID != nil {
		p.AssignedDoctorID = cmd.AssignedDoctorID
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *patientRepo) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	db := r.db.WithContext(ctx).Model(&patient.Patient{}).Where("deleted_at IS NULL")

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.AssignedDoctorID != nil {
		db = db.Where("assigned_doctor_id = ?", *q.AssignedDoctorID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	order := "created_at DESC"
	switch q.SortBy {
	case "last_name":
		order = "last_name"
	case "date_of_birth":
		order = "date_of_birth"
	case "created_at":
		order = "created_at"
	default:
		q.SortBy = ""
	}
	if q.SortBy != "" {
		if strings.EqualFold(q.SortOrder, "desc") {
			order += " DESC"
		} else {
			order += " ASC"
		}
	}

	var items []*patient.Patient
	err := db.Order(order).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &patient.PagedPatients{
		Patients:   items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *patientRepo) ExistsByNationalID(ctx context.Context, nationalID string, excludeID *uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("national_id = ? AND deleted_at IS NULL", nationalID)
	if excludeID != nil {
		db = db.Where("id != ?", *excludeID)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *patientRepo) UpdateRiskAssessment(ctx context.Context, id uuid.UUID, score float64, level string) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"risk_score":       score,
			"risk_level":       level,
			"risk_assessed_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}
