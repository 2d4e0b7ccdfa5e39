package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	EmployeeID   string           `gorm:"column:employee_id;not null;uniqueIndex"`
	Role         enums.UserRole   `gorm:"type:user_role;not null"`
	Status       enums.UserStatus `gorm:"type:user_status;not null;default:'ACTIVE'"`
	Language     enums.Language   `gorm:"type:language;not null;default:'ENGLISH'"`
	DepartmentID *uuid.UUID       `gorm:"type:uuid;column:department_id"`
	Department   *Department      `gorm:"foreignKey:DepartmentID"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins the user's first and last name for display and email greetings.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
