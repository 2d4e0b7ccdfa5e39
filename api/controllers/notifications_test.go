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

	"github.com/iscore-hr/helpdesk-backend/internal/mailer"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/pagination"
)

type testMailerService struct {
	bulkFn   func(ctx context.Context, survey *models.Survey, recipients []models.User) mailer.BulkResult
	logsFn   func(ctx context.Context, params mailer.ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error)
	statsFn  func(ctx context.Context, days int) (*mailer.DeliveryStats, error)
	resendFn func(ctx context.Context, ids []uuid.UUID) (*mailer.ResendResult, error)
}

func (s *testMailerService) Deliver(ctx context.Context, req mailer.DeliverRequest) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testMailerService) DeliverOnce(ctx context.Context, req mailer.DeliverRequest) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *testMailerService) SendBulkInvitations(ctx context.Context, survey *models.Survey, recipients []models.User) mailer.BulkResult {
	if s.bulkFn != nil {
		return s.bulkFn(ctx, survey, recipients)
	}
	return mailer.BulkResult{}
}

func (s *testMailerService) Logs(ctx context.Context, params mailer.ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error) {
	if s.logsFn != nil {
		return s.logsFn(ctx, params)
	}
	return nil, nil, nil
}

func (s *testMailerService) Stats(ctx context.Context, days int) (*mailer.DeliveryStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, days)
	}
	return &mailer.DeliveryStats{}, nil
}

func (s *testMailerService) ResendFailed(ctx context.Context, ids []uuid.UUID) (*mailer.ResendResult, error) {
	if s.resendFn != nil {
		return s.resendFn(ctx, ids)
	}
	return &mailer.ResendResult{}, nil
}

type testAudience struct {
	survey     *models.Survey
	recipients []models.User
}

func (a *testAudience) FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if a.survey == nil || a.survey.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey not found")
	}
	return a.survey, nil
}

func (a *testAudience) ListTargetedUsers(ctx context.Context, survey *models.Survey) ([]models.User, error) {
	return a.recipients, nil
}

type testQueue struct {
	status mailer.Status
}

func (q *testQueue) Status() mailer.Status {
	return q.status
}

func withSurveyParam(req *http.Request, surveyID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("surveyId", surveyID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestSurveyInvitationsSendsBatches(t *testing.T) {
	surveyID := uuid.New()
	audience := &testAudience{
		survey: &models.Survey{ID: surveyID, Title: "Pulse", Status: enums.SurveyStatusPublished},
		recipients: []models.User{
			{ID: uuid.New(), Email: "a@example.com"},
			{ID: uuid.New(), Email: "b@example.com"},
		},
	}
	svc := &testMailerService{
		bulkFn: func(ctx context.Context, survey *models.Survey, recipients []models.User) mailer.BulkResult {
			if survey.ID != surveyID {
				t.Fatalf("unexpected survey %s", survey.ID)
			}
			if len(recipients) != 2 {
				t.Fatalf("unexpected recipients %d", len(recipients))
			}
			return mailer.BulkResult{Success: 2}
		},
	}

	req := withSurveyParam(httptest.NewRequest(http.MethodPost, "/api/notifications/surveys/"+surveyID.String()+"/invitations", nil), surveyID)
	resp := httptest.NewRecorder()
	SurveyInvitations(audience, svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body)
	}
	var envelope struct {
		Data mailer.BulkResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Success != 2 {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestSurveyInvitationsRejectsUnpublished(t *testing.T) {
	surveyID := uuid.New()
	audience := &testAudience{
		survey: &models.Survey{ID: surveyID, Status: enums.SurveyStatusDraft},
	}

	req := withSurveyParam(httptest.NewRequest(http.MethodPost, "/api/notifications/surveys/"+surveyID.String()+"/invitations", nil), surveyID)
	resp := httptest.NewRecorder()
	SurveyInvitations(audience, &testMailerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestEmailLogsParsesFilters(t *testing.T) {
	var captured mailer.ListLogsParams
	svc := &testMailerService{
		logsFn: func(ctx context.Context, params mailer.ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error) {
			captured = params
			return []models.EmailLog{}, nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/email-logs?limit=5&status=FAILED&template=welcome", nil)
	resp := httptest.NewRecorder()
	EmailLogs(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body)
	}
	if captured.Limit != 5 {
		t.Fatalf("unexpected limit %d", captured.Limit)
	}
	if captured.Status == nil || *captured.Status != enums.EmailStatusFailed {
		t.Fatalf("unexpected status filter %v", captured.Status)
	}
	if captured.Template == nil || *captured.Template != enums.EmailTemplateWelcome {
		t.Fatalf("unexpected template filter %v", captured.Template)
	}
}

func TestEmailLogsRejectsBadStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/email-logs?status=BOGUS", nil)
	resp := httptest.NewRecorder()
	EmailLogs(&testMailerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestEmailStatsPassesWindow(t *testing.T) {
	var capturedDays int
	svc := &testMailerService{
		statsFn: func(ctx context.Context, days int) (*mailer.DeliveryStats, error) {
			capturedDays = days
			return &mailer.DeliveryStats{WindowDays: days}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/email-stats?days=30", nil)
	resp := httptest.NewRecorder()
	EmailStats(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if capturedDays != 30 {
		t.Fatalf("unexpected days %d", capturedDays)
	}
}

func TestEmailResendRequiresIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/resend", strings.NewReader(`{"ids":[]}`))
	resp := httptest.NewRecorder()
	EmailResend(&testMailerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestQueueStatusSnapshot(t *testing.T) {
	queue := &testQueue{status: mailer.Status{Length: 4, Processing: true}}

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/queue/status", nil)
	resp := httptest.NewRecorder()
	QueueStatus(queue, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data mailer.Status `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Length != 4 || !envelope.Data.Processing {
		t.Fatalf("unexpected snapshot %+v", envelope.Data)
	}
}
