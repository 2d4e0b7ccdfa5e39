package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/iscore-hr/helpdesk-backend/pkg/db/types"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// Survey is the root aggregate for the feedback workflow.
type Survey struct {
	ID                     uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title                  string             `gorm:"type:text;not null"`
	Description            *string            `gorm:"type:text"`
	Status                 enums.SurveyStatus `gorm:"type:survey_status;not null;default:'DRAFT'"`
	AllowMultipleResponses bool               `gorm:"column:allow_multiple_responses;not null;default:false"`
	TargetAllEmployees     bool               `gorm:"column:target_all_employees;not null;default:true"`
	TargetDepartments      dbtypes.UUIDArray  `gorm:"type:uuid[];column:target_departments;not null;default:ARRAY[]::uuid[]"`
	TargetUsers            dbtypes.UUIDArray  `gorm:"type:uuid[];column:target_users;not null;default:ARRAY[]::uuid[]"`
	StartDate              *time.Time         `gorm:"column:start_date;type:timestamptz"`
	EndDate                *time.Time         `gorm:"column:end_date;type:timestamptz"`
	CreatedByID            uuid.UUID          `gorm:"type:uuid;column:created_by_id;not null"`
	CreatedBy              *User              `gorm:"foreignKey:CreatedByID"`
	Questions              []Question         `gorm:"foreignKey:SurveyID"`
	CreatedAt              time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOpenAt reports whether the survey accepts responses at the given time:
// it must be PUBLISHED and inside its optional validity window.
func (s Survey) IsOpenAt(now time.Time) bool {
	if s.Status != enums.SurveyStatusPublished {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// Targets reports whether the survey is addressed to the given user.
func (s Survey) Targets(userID uuid.UUID, departmentID *uuid.UUID) bool {
	if s.TargetAllEmployees {
		return true
	}
	if s.TargetUsers.Contains(userID) {
		return true
	}
	if departmentID != nil && s.TargetDepartments.Contains(*departmentID) {
		return true
	}
	return false
}
