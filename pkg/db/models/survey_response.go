package models

import (
	"time"

	"github.com/google/uuid"
)

// SurveyResponse records one submission by one user. Uniqueness per
// (survey,user) is enforced in the service layer because surveys may opt
// into multiple responses.
type SurveyResponse struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SurveyID    uuid.UUID          `gorm:"type:uuid;column:survey_id;not null;index:idx_response_survey_user,priority:1"`
	UserID      uuid.UUID          `gorm:"type:uuid;column:user_id;not null;index:idx_response_survey_user,priority:2"`
	User        *User              `gorm:"foreignKey:UserID"`
	IsComplete  bool               `gorm:"column:is_complete;not null;default:false"`
	IPAddress   *string            `gorm:"column:ip_address;type:text"`
	UserAgent   *string            `gorm:"column:user_agent;type:text"`
	CompletedAt *time.Time         `gorm:"column:completed_at;type:timestamptz"`
	Answers     []QuestionResponse `gorm:"foreignKey:SurveyResponseID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
