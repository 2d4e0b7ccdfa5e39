package authn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/internal/users"
	"github.com/iscore-hr/helpdesk-backend/pkg/auth"
	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/security"
)

type fakeStore struct {
	findByEmailFn     func(ctx context.Context, email string) (*models.User, error)
	findByIDFn        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	createFn          func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	countFn           func(ctx context.Context) (int64, error)
	updateLastLoginFn func(ctx context.Context, id uuid.UUID, at time.Time) error

	lastLoginUpdated bool
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, dto)
	}
	return nil, gorm.ErrInvalidData
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx)
	}
	return 0, nil
}

func (f *fakeStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLoginUpdated = true
	if f.updateLastLoginFn != nil {
		return f.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "hrhelpdesk",
		ExpirationMinutes: 60,
	}
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

func newTestService(t *testing.T, store userStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:          store,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "sara@example.com",
		PasswordHash: hash,
		FirstName:    "Sara",
		LastName:     "Haddad",
		EmployeeID:   "EMP00001",
		Role:         enums.UserRoleEmployee,
		Status:       enums.UserStatusActive,
		Language:     enums.LanguageEnglish,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	store := &fakeStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email != "sara@example.com" {
				t.Fatalf("expected normalized email, got %q", email)
			}
			return user, nil
		},
	}
	svc := newTestService(t, store)

	session, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Sara@Example.com ",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !store.lastLoginUpdated {
		t.Fatal("expected last login timestamp update")
	}
	if session.User.Email != "sara@example.com" {
		t.Fatalf("unexpected user %+v", session.User)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleEmployee {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	svc := newTestService(t, &fakeStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "sara@example.com",
		Password: "wrong",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailUsesSameMessage(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	svc := newTestService(t, &fakeStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	})

	_, unknownErr := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	_, wrongErr := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "x"})

	if pkgerrors.As(unknownErr).Message() != pkgerrors.As(wrongErr).Message() {
		t.Fatalf("credential errors must be indistinguishable: %q vs %q",
			pkgerrors.As(unknownErr).Message(), pkgerrors.As(wrongErr).Message())
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	user.Status = enums.UserStatusInactive
	svc := newTestService(t, &fakeStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "correct horse battery",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRegisterCreatesEmployee(t *testing.T) {
	var created users.CreateUserDTO
	store := &fakeStore{
		countFn: func(ctx context.Context) (int64, error) { return 7, nil },
		createFn: func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
			created = dto
			user := dto.ToModel()
			user.ID = uuid.New()
			return user, nil
		},
	}
	svc := newTestService(t, store)

	session, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "Omar@Example.com",
		Password:  "long enough secret",
		FirstName: "Omar",
		LastName:  "Farouk",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if created.Role != enums.UserRoleEmployee {
		t.Fatalf("self-service accounts must be employees, got %s", created.Role)
	}
	if created.EmployeeID != "EMP00008" {
		t.Fatalf("unexpected employee id %q", created.EmployeeID)
	}
	if !strings.HasPrefix(created.PasswordHash, "$argon2id$") {
		t.Fatalf("password not hashed: %q", created.PasswordHash)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	svc := newTestService(t, &fakeStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     user.Email,
		Password:  "long enough secret",
		FirstName: "Sara",
		LastName:  "Haddad",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(t, &fakeStore{})
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "omar@example.com",
		Password:  "short",
		FirstName: "Omar",
		LastName:  "Farouk",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	user := activeUser(t, "correct horse battery")
	svc := newTestService(t, &fakeStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	})

	profile, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != user.Email {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if _, err := svc.Profile(context.Background(), uuid.New()); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
