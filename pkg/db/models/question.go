package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/iscore-hr/helpdesk-backend/pkg/db/types"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// Question belongs to a survey; display order is unique per survey.
type Question struct {
	ID        uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SurveyID  uuid.UUID           `gorm:"type:uuid;column:survey_id;not null;uniqueIndex:uniq_survey_question_order,priority:1"`
	Text      string              `gorm:"type:text;not null"`
	Type      enums.QuestionType  `gorm:"type:question_type;not null"`
	Required  bool                `gorm:"not null;default:true"`
	Order     int                 `gorm:"column:display_order;not null;uniqueIndex:uniq_survey_question_order,priority:2"`
	Options   dbtypes.StringArray `gorm:"type:text[];not null;default:ARRAY[]::text[]"`
	MinValue  *int                `gorm:"column:min_value"`
	MaxValue  *int                `gorm:"column:max_value"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
