package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	"github.com/iscore-hr/helpdesk-backend/pkg/pagination"
)

// Repository persists the append-only email log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, log *models.EmailLog) error
	List(ctx context.Context, params ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EmailLog, error)
	Stats(ctx context.Context, since time.Time) (*LogStats, error)
}

// ListLogsParams filters and paginates the email log listing.
type ListLogsParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	Status   *enums.EmailStatus
	Template *enums.EmailTemplate
}

// LogStats summarizes delivery outcomes over a window.
type LogStats struct {
	Total      int64            `json:"total"`
	Sent       int64            `json:"sent"`
	Failed     int64            `json:"failed"`
	ByTemplate map[string]int64 `json:"by_template"`
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an email log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Append(ctx context.Context, log *models.EmailLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repositoryImpl) List(ctx context.Context, params ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.EmailLog{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Template != nil {
		query = query.Where("template_type = ?", *params.Template)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var logs []models.EmailLog
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, nil, err
	}

	if len(logs) > normalized {
		next := logs[normalized]
		logs = logs[:normalized]
		return logs, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return logs, nil, nil
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EmailLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var logs []models.EmailLog
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repositoryImpl) Stats(ctx context.Context, since time.Time) (*LogStats, error) {
	stats := &LogStats{ByTemplate: map[string]int64{}}

	base := r.db.WithContext(ctx).Model(&models.EmailLog{}).Where("created_at >= ?", since)
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", enums.EmailStatusSent).Count(&stats.Sent).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", enums.EmailStatusFailed).Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	rows := []struct {
		TemplateType string
		Count        int64
	}{}
	err := r.db.WithContext(ctx).Model(&models.EmailLog{}).
		Select("template_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("template_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByTemplate[row.TemplateType] = row.Count
	}
	return stats, nil
}
