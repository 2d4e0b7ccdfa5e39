package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	EmployeeID   string           `json:"employee_id"`
	Role         enums.UserRole   `json:"role"`
	Status       enums.UserStatus `json:"status"`
	Language     enums.Language   `json:"language"`
	DepartmentID *uuid.UUID       `json:"department_id,omitempty"`
	Department   *string          `json:"department,omitempty"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	EmployeeID   string
	Role         enums.UserRole
	Language     enums.Language
	DepartmentID *uuid.UUID
}

// UpdateUserDTO carries the mutable fields for an existing user.
type UpdateUserDTO struct {
	FirstName    *string
	LastName     *string
	Language     *enums.Language
	DepartmentID *uuid.UUID
	Status       *enums.UserStatus
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		EmployeeID:   u.EmployeeID,
		Role:         u.Role,
		Status:       u.Status,
		Language:     u.Language,
		DepartmentID: u.DepartmentID,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Department != nil {
		name := u.Department.Name
		dto.Department = &name
	}
	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	language := c.Language
	if language == "" {
		language = enums.LanguageEnglish
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		EmployeeID:   c.EmployeeID,
		Role:         c.Role,
		Status:       enums.UserStatusActive,
		Language:     language,
		DepartmentID: c.DepartmentID,
	}
}
