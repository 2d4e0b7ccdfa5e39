package analytics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// Repository exposes the read-only queries behind the aggregations.
type Repository interface {
	FindSurvey(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	ListPublishedSurveys(ctx context.Context) ([]models.Survey, error)
	ListResponses(ctx context.Context, surveyID uuid.UUID) ([]models.SurveyResponse, error)
	ListRecentResponses(ctx context.Context, surveyID uuid.UUID, limit int) ([]models.SurveyResponse, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindSurvey(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		First(&survey, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *repositoryImpl) ListPublishedSurveys(ctx context.Context) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("status = ?", enums.SurveyStatusPublished).
		Order("created_at DESC").
		Find(&surveys).Error
	if err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *repositoryImpl) ListResponses(ctx context.Context, surveyID uuid.UUID) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("User").
		Preload("User.Department").
		Where("survey_id = ?", surveyID).
		Order("created_at DESC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *repositoryImpl) ListRecentResponses(ctx context.Context, surveyID uuid.UUID, limit int) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Department").
		Where("survey_id = ? AND completed_at IS NOT NULL", surveyID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}
