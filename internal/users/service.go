package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/pagination"
	"github.com/iscore-hr/helpdesk-backend/pkg/security"
)

const tempPasswordLength = 12

// Service defines the employee management operations used by the controllers.
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (*UserDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*UserDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

// welcomeNotifier queues the onboarding email without coupling to the mailer package.
type welcomeNotifier interface {
	EnqueueWelcome(email, fullName, role, tempPassword string) error
}

// CreateEmployeeRequest is the payload for HR-driven employee creation.
type CreateEmployeeRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	FirstName    string          `json:"first_name" validate:"required"`
	LastName     string          `json:"last_name" validate:"required"`
	Role         enums.UserRole  `json:"role" validate:"required"`
	Language     *enums.Language `json:"language,omitempty"`
	DepartmentID *uuid.UUID      `json:"department_id,omitempty"`
}

// UpdateEmployeeRequest carries the mutable fields accepted from HR.
type UpdateEmployeeRequest struct {
	FirstName    *string           `json:"first_name,omitempty"`
	LastName     *string           `json:"last_name,omitempty"`
	Language     *enums.Language   `json:"language,omitempty"`
	DepartmentID *uuid.UUID        `json:"department_id,omitempty"`
	Status       *enums.UserStatus `json:"status,omitempty"`
}

// ListParams configures filtering and pagination for the employee listing.
type ListParams struct {
	Limit        int
	Cursor       string
	Role         *enums.UserRole
	Status       *enums.UserStatus
	DepartmentID *uuid.UUID
}

// ListResult wraps returned employees and the cursor for the next page.
type ListResult struct {
	Items  []UserDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

// ServiceParams bundles the dependencies for the users service.
type ServiceParams struct {
	Repo           Repository
	Notifier       welcomeNotifier
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo        Repository
	notifier    welcomeNotifier
	passwordCfg config.PasswordConfig
}

// NewService wires users dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{
		repo:        params.Repo,
		notifier:    params.Notifier,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user role")
	}
	language := enums.LanguageEnglish
	if req.Language != nil {
		if !req.Language.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid language")
		}
		language = *req.Language
	}
	if req.DepartmentID != nil {
		if _, err := s.repo.FindDepartmentByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown department")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve department")
		}
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	passwordHash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	employeeID, err := s.nextEmployeeID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		EmployeeID:   employeeID,
		Role:         req.Role,
		Language:     language,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if s.notifier != nil {
		// Onboarding email is best effort; the account exists either way.
		_ = s.notifier.EnqueueWelcome(user.Email, user.FullName(), user.Role.String(), tempPassword)
	}

	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := ListUsersParams{
		Limit:        pagination.LimitWithBuffer(params.Limit),
		Role:         params.Role,
		Status:       params.Status,
		DepartmentID: params.DepartmentID,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if req.Language != nil && !req.Language.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid language")
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user status")
	}
	if req.DepartmentID != nil {
		if _, err := s.repo.FindDepartmentByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown department")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve department")
		}
	}

	user, err := s.repo.Update(ctx, id, UpdateUserDTO{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Language:     req.Language,
		DepartmentID: req.DepartmentID,
		Status:       req.Status,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
	}
	return nil
}

func (s *service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list departments")
	}
	return departments, nil
}

func (s *service) nextEmployeeID(ctx context.Context) (string, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	return fmt.Sprintf("EMP%05d", count+1), nil
}
