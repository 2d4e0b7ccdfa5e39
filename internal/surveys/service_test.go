package surveys

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

type fakeRepository struct {
	surveys   map[uuid.UUID]*models.Survey
	responses []*models.SurveyResponse
	statusErr error
}

func newFakeRepository(surveys ...*models.Survey) *fakeRepository {
	repo := &fakeRepository{surveys: map[uuid.UUID]*models.Survey{}}
	for _, s := range surveys {
		repo.surveys[s.ID] = s
	}
	return repo
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	for i := range survey.Questions {
		if survey.Questions[i].ID == uuid.Nil {
			survey.Questions[i].ID = uuid.New()
		}
	}
	f.surveys[survey.ID] = survey
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if survey, ok := f.surveys[id]; ok {
		return survey, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.Survey, error) {
	var out []models.Survey
	for _, s := range f.surveys {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepository) ListByStatus(ctx context.Context, status enums.SurveyStatus) ([]models.Survey, error) {
	var out []models.Survey
	for _, s := range f.surveys {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SurveyStatus, now time.Time) (bool, error) {
	if f.statusErr != nil {
		return false, f.statusErr
	}
	survey, ok := f.surveys[id]
	if !ok || survey.Status != from {
		return false, nil
	}
	survey.Status = to
	return true, nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.surveys[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.surveys, id)
	return nil
}

func (f *fakeRepository) CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	var count int64
	for _, r := range f.responses {
		if r.SurveyID == surveyID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CountResponsesBySurvey(ctx context.Context) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	for _, r := range f.responses {
		counts[r.SurveyID]++
	}
	return counts, nil
}

func (f *fakeRepository) HasResponse(ctx context.Context, surveyID, userID uuid.UUID) (bool, error) {
	for _, r := range f.responses {
		if r.SurveyID == surveyID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) CreateResponse(ctx context.Context, response *models.SurveyResponse) error {
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	f.responses = append(f.responses, response)
	return nil
}

func (f *fakeRepository) FindResponse(ctx context.Context, surveyID, responseID uuid.UUID) (*models.SurveyResponse, error) {
	for _, r := range f.responses {
		if r.ID == responseID && r.SurveyID == surveyID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListTargetedUsers(ctx context.Context, survey *models.Survey) ([]models.User, error) {
	return nil, nil
}

func intPtr(v int) *int { return &v }

func publishedSurvey(questions ...models.Question) *models.Survey {
	return &models.Survey{
		ID:                 uuid.New(),
		Title:              "Employee Satisfaction & Engagement Survey",
		Status:             enums.SurveyStatusPublished,
		TargetAllEmployees: true,
		CreatedByID:        uuid.New(),
		Questions:          questions,
	}
}

func ratingQuestion() models.Question {
	return models.Question{
		ID:       uuid.New(),
		Type:     enums.QuestionTypeRatingScale,
		Text:     "How satisfied are you with your current role and responsibilities?",
		Required: true,
		Order:    1,
		MinValue: intPtr(1),
		MaxValue: intPtr(5),
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubmitResponseStates(t *testing.T) {
	tests := []struct {
		name     string
		status   enums.SurveyStatus
		wantCode pkgerrors.Code
	}{
		{name: "draft rejected", status: enums.SurveyStatusDraft, wantCode: pkgerrors.CodeStateConflict},
		{name: "closed rejected", status: enums.SurveyStatusClosed, wantCode: pkgerrors.CodeStateConflict},
		{name: "published accepted", status: enums.SurveyStatusPublished},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			question := ratingQuestion()
			survey := publishedSurvey(question)
			survey.Status = tc.status
			repo := newFakeRepository(survey)
			svc := newTestService(t, repo)

			_, err := svc.SubmitResponse(context.Background(), SubmitResponseRequest{
				SurveyID: survey.ID,
				UserID:   uuid.New(),
				Answers:  []AnswerInput{{QuestionID: question.ID, Value: "4"}},
			})
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if len(repo.responses) != 1 {
					t.Fatalf("expected stored response")
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := pkgerrors.As(err).Code(); got != tc.wantCode {
				t.Fatalf("expected %s, got %s", tc.wantCode, got)
			}
		})
	}
}

func TestSubmitResponseSingleResponseRule(t *testing.T) {
	question := ratingQuestion()
	survey := publishedSurvey(question)
	repo := newFakeRepository(survey)
	svc := newTestService(t, repo)
	userID := uuid.New()

	submit := func() error {
		_, err := svc.SubmitResponse(context.Background(), SubmitResponseRequest{
			SurveyID: survey.ID,
			UserID:   userID,
			Answers:  []AnswerInput{{QuestionID: question.ID, Value: "3"}},
		})
		return err
	}

	if err := submit(); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	err := submit()
	if err == nil {
		t.Fatal("expected conflict on second submission")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	survey.AllowMultipleResponses = true
	if err := submit(); err != nil {
		t.Fatalf("multiple responses allowed: %v", err)
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	question := ratingQuestion()
	survey := publishedSurvey(question)
	svc := newTestService(t, newFakeRepository(survey))

	tests := []struct {
		name    string
		answers []AnswerInput
	}{
		{name: "missing required", answers: nil},
		{name: "non numeric rating", answers: []AnswerInput{{QuestionID: question.ID, Value: "great"}}},
		{name: "rating above max", answers: []AnswerInput{{QuestionID: question.ID, Value: "6"}}},
		{name: "rating below min", answers: []AnswerInput{{QuestionID: question.ID, Value: "0"}}},
		{name: "unknown question", answers: []AnswerInput{{QuestionID: uuid.New(), Value: "3"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitResponse(context.Background(), SubmitResponseRequest{
				SurveyID: survey.ID,
				UserID:   uuid.New(),
				Answers:  tc.answers,
			})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation, got %v", err)
			}
		})
	}
}

func TestSubmitResponseOutsideWindow(t *testing.T) {
	question := ratingQuestion()
	survey := publishedSurvey(question)
	past := time.Now().Add(-48 * time.Hour)
	ended := time.Now().Add(-24 * time.Hour)
	survey.StartDate = &past
	survey.EndDate = &ended
	svc := newTestService(t, newFakeRepository(survey))

	_, err := svc.SubmitResponse(context.Background(), SubmitResponseRequest{
		SurveyID: survey.ID,
		UserID:   uuid.New(),
		Answers:  []AnswerInput{{QuestionID: question.ID, Value: "3"}},
	})
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	survey := publishedSurvey(ratingQuestion())
	survey.Status = enums.SurveyStatusDraft
	repo := newFakeRepository(survey)
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Close(ctx, survey.ID); err == nil {
		t.Fatal("closing a draft must fail")
	}

	published, err := svc.Publish(ctx, survey.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != enums.SurveyStatusPublished {
		t.Fatalf("unexpected status %s", published.Status)
	}

	if _, err := svc.Publish(ctx, survey.ID); err == nil {
		t.Fatal("publishing twice must fail")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	closed, err := svc.Close(ctx, survey.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != enums.SurveyStatusClosed {
		t.Fatalf("unexpected status %s", closed.Status)
	}

	if _, err := svc.Publish(ctx, survey.ID); err == nil {
		t.Fatal("closed surveys cannot be republished")
	}
}

func TestUnpublishBlockedByResponses(t *testing.T) {
	question := ratingQuestion()
	survey := publishedSurvey(question)
	repo := newFakeRepository(survey)
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.SubmitResponse(ctx, SubmitResponseRequest{
		SurveyID: survey.ID,
		UserID:   uuid.New(),
		Answers:  []AnswerInput{{QuestionID: question.ID, Value: "2"}},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := svc.Unpublish(ctx, survey.ID)
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeleteOnlyDrafts(t *testing.T) {
	draft := publishedSurvey()
	draft.Status = enums.SurveyStatusDraft
	published := publishedSurvey()
	repo := newFakeRepository(draft, published)
	svc := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.Delete(ctx, published.ID); err == nil {
		t.Fatal("published surveys cannot be deleted")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := svc.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
}

func TestCreateFromTemplateCopiesQuestions(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	dto, err := svc.CreateFromTemplate(context.Background(), CreateSurveyRequest{
		TemplateID:  "workplace_culture",
		CreatedByID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}
	if dto.Status != enums.SurveyStatusDraft {
		t.Fatalf("expected draft, got %s", dto.Status)
	}
	if len(dto.Questions) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(dto.Questions))
	}
	for i, q := range dto.Questions {
		if q.Order != i+1 {
			t.Fatalf("question %d out of order: %d", i, q.Order)
		}
		if q.Type != enums.QuestionTypeRatingScale {
			t.Fatalf("unexpected type %s", q.Type)
		}
		if q.MinValue == nil || *q.MinValue != 1 || q.MaxValue == nil || *q.MaxValue != 5 {
			t.Fatalf("unexpected scale bounds %v %v", q.MinValue, q.MaxValue)
		}
	}
}

func TestCreateFromTemplateUnknown(t *testing.T) {
	svc := newTestService(t, newFakeRepository())
	_, err := svc.CreateFromTemplate(context.Background(), CreateSurveyRequest{
		TemplateID:  "does_not_exist",
		CreatedByID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected not found")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
