package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/api/middleware"
	"github.com/iscore-hr/helpdesk-backend/internal/surveys"
	"github.com/iscore-hr/helpdesk-backend/internal/users"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

type testSurveysService struct {
	templatesFn func(ctx context.Context) []surveys.Template
	createFn    func(ctx context.Context, req surveys.CreateSurveyRequest) (*surveys.SurveyDTO, error)
	publishedFn func(ctx context.Context, userID uuid.UUID, departmentID *uuid.UUID) ([]surveys.SurveyDTO, error)
	submitFn    func(ctx context.Context, req surveys.SubmitResponseRequest) (*surveys.ResponseDTO, error)
}

func (s *testSurveysService) ListTemplates(ctx context.Context) []surveys.Template {
	if s.templatesFn != nil {
		return s.templatesFn(ctx)
	}
	return nil
}

func (s *testSurveysService) CreateFromTemplate(ctx context.Context, req surveys.CreateSurveyRequest) (*surveys.SurveyDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testSurveysService) ListAll(ctx context.Context) ([]surveys.SurveyDTO, error) {
	return nil, nil
}

func (s *testSurveysService) ListPublished(ctx context.Context, userID uuid.UUID, departmentID *uuid.UUID) ([]surveys.SurveyDTO, error) {
	if s.publishedFn != nil {
		return s.publishedFn(ctx, userID, departmentID)
	}
	return nil, nil
}

func (s *testSurveysService) Get(ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey not found")
}

func (s *testSurveysService) Publish(ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testSurveysService) Unpublish(ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testSurveysService) Close(ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testSurveysService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *testSurveysService) SubmitResponse(ctx context.Context, req surveys.SubmitResponseRequest) (*surveys.ResponseDTO, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, req)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testSurveysService) ResponseDetails(ctx context.Context, surveyID, responseID uuid.UUID) (*surveys.ResponseDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "response not found")
}

type testProfiles struct {
	departmentID *uuid.UUID
}

func (p *testProfiles) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id, DepartmentID: p.departmentID}, nil
}

func TestSurveyCreateStampsCreator(t *testing.T) {
	creatorID := uuid.New()
	var captured surveys.CreateSurveyRequest
	svc := &testSurveysService{
		createFn: func(ctx context.Context, req surveys.CreateSurveyRequest) (*surveys.SurveyDTO, error) {
			captured = req
			return &surveys.SurveyDTO{ID: uuid.New(), Title: "Pulse"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/surveys",
		strings.NewReader(`{"template_id":"employee_satisfaction"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), creatorID.String()))
	resp := httptest.NewRecorder()
	SurveyCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body)
	}
	if captured.CreatedByID != creatorID {
		t.Fatalf("creator not stamped, got %s", captured.CreatedByID)
	}
}

func TestSurveyRespondBuildsSubmission(t *testing.T) {
	surveyID := uuid.New()
	userID := uuid.New()
	departmentID := uuid.New()
	questionID := uuid.New()

	var captured surveys.SubmitResponseRequest
	svc := &testSurveysService{
		submitFn: func(ctx context.Context, req surveys.SubmitResponseRequest) (*surveys.ResponseDTO, error) {
			captured = req
			return &surveys.ResponseDTO{ID: uuid.New(), SurveyID: req.SurveyID}, nil
		},
	}

	body := `{"answers":[{"question_id":"` + questionID.String() + `","value":"4"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/surveys/"+surveyID.String()+"/responses", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.5:4411"
	req.Header.Set("User-Agent", "test-agent")
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("surveyId", surveyID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	SurveyRespond(svc, &testProfiles{departmentID: &departmentID}, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body)
	}
	if captured.SurveyID != surveyID || captured.UserID != userID {
		t.Fatalf("unexpected submission %+v", captured)
	}
	if captured.DepartmentID == nil || *captured.DepartmentID != departmentID {
		t.Fatalf("department not resolved: %+v", captured.DepartmentID)
	}
	if captured.IPAddress != "203.0.113.5" || captured.UserAgent != "test-agent" {
		t.Fatalf("request metadata missing: %+v", captured)
	}
	if len(captured.Answers) != 1 || captured.Answers[0].QuestionID != questionID {
		t.Fatalf("unexpected answers %+v", captured.Answers)
	}
}

func TestSurveyRespondRejectsEmptyAnswers(t *testing.T) {
	surveyID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/surveys/"+surveyID.String()+"/responses",
		strings.NewReader(`{"answers":[]}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("surveyId", surveyID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	SurveyRespond(&testSurveysService{}, &testProfiles{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSurveyGetRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/surveys/not-a-uuid", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("surveyId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	SurveyGet(&testSurveysService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSurveyListPublishedResolvesDepartment(t *testing.T) {
	userID := uuid.New()
	departmentID := uuid.New()
	var capturedDept *uuid.UUID
	svc := &testSurveysService{
		publishedFn: func(ctx context.Context, uid uuid.UUID, deptID *uuid.UUID) ([]surveys.SurveyDTO, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			capturedDept = deptID
			return []surveys.SurveyDTO{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/surveys/published", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	SurveyListPublished(svc, &testProfiles{departmentID: &departmentID}, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if capturedDept == nil || *capturedDept != departmentID {
		t.Fatalf("department not passed through: %v", capturedDept)
	}

	var envelope struct {
		Data []surveys.SurveyDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
}
