package surveys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// Repository exposes persistence helpers for surveys and responses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, survey *models.Survey) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	ListAll(ctx context.Context) ([]models.Survey, error)
	ListByStatus(ctx context.Context, status enums.SurveyStatus) ([]models.Survey, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SurveyStatus, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error)
	CountResponsesBySurvey(ctx context.Context) (map[uuid.UUID]int64, error)
	HasResponse(ctx context.Context, surveyID, userID uuid.UUID) (bool, error)
	CreateResponse(ctx context.Context, response *models.SurveyResponse) error
	FindResponse(ctx context.Context, surveyID, responseID uuid.UUID) (*models.SurveyResponse, error)
	ListTargetedUsers(ctx context.Context, survey *models.Survey) ([]models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a surveys repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, survey *models.Survey) error {
	return r.db.WithContext(ctx).Create(survey).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("CreatedBy").
		First(&survey, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *repositoryImpl) ListAll(ctx context.Context) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Order("created_at DESC").
		Find(&surveys).Error
	if err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.SurveyStatus) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&surveys).Error
	if err != nil {
		return nil, err
	}
	return surveys, nil
}

// UpdateStatus moves the survey between lifecycle states; the from guard keeps
// concurrent transitions from racing each other.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SurveyStatus, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Survey{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Survey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SurveyResponse{}).
		Where("survey_id = ?", surveyID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) CountResponsesBySurvey(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		SurveyID uuid.UUID
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.SurveyResponse{}).
		Select("survey_id, count(*) as count").
		Group("survey_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.SurveyID] = r.Count
	}
	return counts, nil
}

func (r *repositoryImpl) HasResponse(ctx context.Context, surveyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SurveyResponse{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) CreateResponse(ctx context.Context, response *models.SurveyResponse) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *repositoryImpl) FindResponse(ctx context.Context, surveyID, responseID uuid.UUID) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("User").
		First(&response, "id = ? AND survey_id = ?", responseID, surveyID).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ListTargetedUsers resolves the active users a survey is addressed to.
func (r *repositoryImpl) ListTargetedUsers(ctx context.Context, survey *models.Survey) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("status = ?", enums.UserStatusActive)

	if !survey.TargetAllEmployees {
		targetUsers := []uuid.UUID(survey.TargetUsers)
		targetDepartments := []uuid.UUID(survey.TargetDepartments)
		switch {
		case len(targetUsers) > 0 && len(targetDepartments) > 0:
			query = query.Where("id IN ? OR department_id IN ?", targetUsers, targetDepartments)
		case len(targetUsers) > 0:
			query = query.Where("id IN ?", targetUsers)
		case len(targetDepartments) > 0:
			query = query.Where("department_id IN ?", targetDepartments)
		default:
			return []models.User{}, nil
		}
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
