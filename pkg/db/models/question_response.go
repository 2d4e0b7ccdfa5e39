package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionResponse holds a single answer value, always stored as text.
type QuestionResponse struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SurveyResponseID uuid.UUID `gorm:"type:uuid;column:survey_response_id;not null;index"`
	QuestionID       uuid.UUID `gorm:"type:uuid;column:question_id;not null;index"`
	Value            string    `gorm:"type:text;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
