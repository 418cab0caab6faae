package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicore/clinicore/internal/domain/availability"
)

type availabilityRepo struct {
	db *gorm.DB
}

func NewAvailabilityRepo(db *gorm.DB) availability.Repository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*availability.AvailabilityDay, error) {
	var day availability.AvailabilityDay
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("doctor_id = ? AND date = ?", doctorID, availability.TruncateToDay(date)).
		First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availability.ErrDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

func (r *availabilityRepo) Replace(ctx context.Context, day *availability.AvailabilityDay) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing availability.AvailabilityDay
		err := tx.Where("doctor_id = ? AND date = ?", day.DoctorID, day.Date).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("day_id = ?", existing.ID).
				Delete(&availability.TimeSlot{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(day).Error
	})
}

func (r *availabilityRepo) CreateIfAbsent(ctx context.Context, day *availability.AvailabilityDay) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing availability.AvailabilityDay
		err := tx.Select("id").
			Where("doctor_id = ? AND date = ?", day.DoctorID, day.Date).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(day).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *availabilityRepo) ListRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.AvailabilityDay, error) {
	var days []availability.AvailabilityDay
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("doctor_id = ? AND date >= ? AND date <= ?",
			doctorID, availability.TruncateToDay(from), availability.TruncateToDay(to)).
		Order("date ASC").
		Find(&days).Error
	return days, err
}

// ReserveSlot is the only write path that books a slot. The WHERE clause
// carries the is_booked guard, so of two concurrent reservations for the
// same slot exactly one update matches a row.
func (r *availabilityRepo) ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time, appointmentID uuid.UUID) error {
	dayIDs := r.db.WithContext(ctx).Model(&availability.AvailabilityDay{}).
		Select("id").
		Where("doctor_id = ? AND date = ?", doctorID, availability.TruncateToDay(date))

	res := r.db.WithContext(ctx).Model(&availability.TimeSlot{}).
		Where("day_id IN (?)", dayIDs).
		Where("start_time <= ? AND end_time >= ?", start, end).
		Where("is_booked = ?", false).
		Updates(map[string]interface{}{
			"is_booked":      true,
			"appointment_id": appointmentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return availability.ErrSlotUnavailable
	}
	return nil
}

func (r *availabilityRepo) ReleaseSlot(ctx context.Context, appointmentID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&availability.TimeSlot{}).
		Where("appointment_id = ?", appointmentID).
		Updates(map[string]interface{}{
			"is_booked":      false,
			"appointment_id": nil,
		}).Error
}

func (r *availabilityRepo) Delete(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var day availability.AvailabilityDay
		err := tx.Select("id").
			Where("doctor_id = ? AND date = ?", doctorID, availability.TruncateToDay(date)).
			First(&day).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return availability.ErrDayNotFound
			}
			return err
		}
		if err := tx.Where("day_id = ?", day.ID).
			Delete(&availability.TimeSlot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&availability.AvailabilityDay{}, "id = ?", day.ID).Error
	})
}
