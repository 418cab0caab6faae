package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/service"
)

// Audit rows are append-only; there is no update or delete path.
type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) service.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
