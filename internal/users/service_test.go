package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	paginationpkg "github.com/iscore-hr/helpdesk-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn           func(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	findByIDFn         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findByEmailFn      func(ctx context.Context, email string) (*models.User, error)
	listFn             func(ctx context.Context, params ListUsersParams) ([]models.User, *paginationpkg.Cursor, error)
	updateFn           func(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.User, error)
	deactivateFn       func(ctx context.Context, id uuid.UUID) error
	countFn            func(ctx context.Context) (int64, error)
	findDepartmentFn   func(ctx context.Context, id uuid.UUID) (*models.Department, error)
	listDepartmentsFn  func(ctx context.Context) ([]models.Department, error)
	updateLastLoginFn  func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, dto)
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	return user, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, params ListUsersParams) ([]models.User, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.User, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, dto)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, id)
	}
	return nil
}

func (f *fakeRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if f.updateLastLoginFn != nil {
		return f.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

func (f *fakeRepository) Count(ctx context.Context) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx)
	}
	return 0, nil
}

func (f *fakeRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	if f.listDepartmentsFn != nil {
		return f.listDepartmentsFn(ctx)
	}
	return nil, nil
}

func (f *fakeRepository) FindDepartmentByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	if f.findDepartmentFn != nil {
		return f.findDepartmentFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	welcomes []string
}

func (f *fakeNotifier) EnqueueWelcome(email, fullName, role, tempPassword string) error {
	f.welcomes = append(f.welcomes, email)
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newServiceWithRepo(t *testing.T, repo Repository, notifier welcomeNotifier) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Notifier:       notifier,
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_CreateEmployee(t *testing.T) {
	var created CreateUserDTO
	repo := &fakeRepository{
		countFn: func(ctx context.Context) (int64, error) { return 41, nil },
		createFn: func(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
			created = dto
			user := dto.ToModel()
			user.ID = uuid.New()
			return user, nil
		},
	}
	notifier := &fakeNotifier{}
	svc := newServiceWithRepo(t, repo, notifier)

	result, err := svc.Create(context.Background(), CreateEmployeeRequest{
		Email:     "  New.Employee@Example.com ",
		FirstName: "New",
		LastName:  "Employee",
		Role:      enums.UserRoleEmployee,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	if created.Email != "new.employee@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.EmployeeID != "EMP00042" {
		t.Fatalf("unexpected employee id %q", created.EmployeeID)
	}
	if !strings.HasPrefix(created.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", created.PasswordHash)
	}
	if result.Language != enums.LanguageEnglish {
		t.Fatalf("expected default language, got %s", result.Language)
	}
	if len(notifier.welcomes) != 1 || notifier.welcomes[0] != "new.employee@example.com" {
		t.Fatalf("expected welcome email enqueued, got %v", notifier.welcomes)
	}
}

func TestService_CreateEmployeeDuplicateEmail(t *testing.T) {
	repo := &fakeRepository{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Email: email}, nil
		},
	}
	svc := newServiceWithRepo(t, repo, nil)

	_, err := svc.Create(context.Background(), CreateEmployeeRequest{
		Email:     "dup@example.com",
		FirstName: "Dup",
		LastName:  "User",
		Role:      enums.UserRoleEmployee,
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_CreateEmployeeUnknownDepartment(t *testing.T) {
	deptID := uuid.New()
	svc := newServiceWithRepo(t, &fakeRepository{}, nil)

	_, err := svc.Create(context.Background(), CreateEmployeeRequest{
		Email:        "emp@example.com",
		FirstName:    "Em",
		LastName:     "Ploye",
		Role:         enums.UserRoleEmployee,
		DepartmentID: &deptID,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestService_ListUsersCursor(t *testing.T) {
	next := models.User{ID: uuid.New(), CreatedAt: time.Now()}
	repo := &fakeRepository{
		listFn: func(ctx context.Context, params ListUsersParams) ([]models.User, *paginationpkg.Cursor, error) {
			return []models.User{{ID: uuid.New(), Role: enums.UserRoleEmployee}},
				&paginationpkg.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
		},
	}
	svc := newServiceWithRepo(t, repo, nil)

	result, err := svc.List(context.Background(), ListParams{Limit: 1})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 user, got %d", len(result.Items))
	}
	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("invalid cursor: %v", err)
	}
	if decoded.ID != next.ID {
		t.Fatalf("unexpected cursor id %s", decoded.ID)
	}
}

func TestService_DeactivateNotFound(t *testing.T) {
	repo := &fakeRepository{
		deactivateFn: func(ctx context.Context, id uuid.UUID) error {
			return gorm.ErrRecordNotFound
		},
	}
	svc := newServiceWithRepo(t, repo, nil)

	err := svc.Deactivate(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
