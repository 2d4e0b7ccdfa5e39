package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/iscore-hr/helpdesk-backend/pkg/db/types"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// EmailLog is an append-only record of every outbound send attempt.
type EmailLog struct {
	ID           uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateType enums.EmailTemplate `gorm:"type:email_template;column:template_type;not null"`
	UserID       *uuid.UUID          `gorm:"type:uuid;column:user_id;index"`
	RelatedID    *uuid.UUID          `gorm:"type:uuid;column:related_id"`
	Email        string              `gorm:"type:text;not null;index"`
	Status       enums.EmailStatus   `gorm:"type:email_status;not null;index"`
	Error        *string             `gorm:"type:text"`
	Metadata     dbtypes.JSONMap     `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime;index"`
}
