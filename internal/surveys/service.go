package surveys

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	dbtypes "github.com/iscore-hr/helpdesk-backend/pkg/db/types"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

// Service defines the survey lifecycle operations used by the controllers.
type Service interface {
	ListTemplates(ctx context.Context) []Template
	CreateFromTemplate(ctx context.Context, req CreateSurveyRequest) (*SurveyDTO, error)
	ListAll(ctx context.Context) ([]SurveyDTO, error)
	ListPublished(ctx context.Context, userID uuid.UUID, departmentID *uuid.UUID) ([]SurveyDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SurveyDTO, error)
	Publish(ctx context.Context, id uuid.UUID) (*SurveyDTO, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*SurveyDTO, error)
	Close(ctx context.Context, id uuid.UUID) (*SurveyDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SubmitResponse(ctx context.Context, req SubmitResponseRequest) (*ResponseDTO, error)
	ResponseDetails(ctx context.Context, surveyID, responseID uuid.UUID) (*ResponseDTO, error)
}

// notifier queues lifecycle emails without coupling to the mailer package.
// Publishing fans out invitations to the recipients and a summary to the
// creator; the other hooks only notify the creator.
type notifier interface {
	NotifySurveyPublished(ctx context.Context, survey *models.Survey, recipients []models.User)
	NotifySurveyClosed(ctx context.Context, survey *models.Survey, responseCount int64)
	NotifyResponseSubmitted(ctx context.Context, survey *models.Survey, respondent *models.User, responseCount int64)
}

type creatorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CreateSurveyRequest instantiates a survey from a predefined template.
type CreateSurveyRequest struct {
	TemplateID             string      `json:"template_id" validate:"required"`
	Title                  *string     `json:"title,omitempty"`
	Description            *string     `json:"description,omitempty"`
	AllowMultipleResponses bool        `json:"allow_multiple_responses"`
	TargetAllEmployees     *bool       `json:"target_all_employees,omitempty"`
	TargetDepartments      []uuid.UUID `json:"target_departments,omitempty"`
	TargetUsers            []uuid.UUID `json:"target_users,omitempty"`
	StartDate              *time.Time  `json:"start_date,omitempty"`
	EndDate                *time.Time  `json:"end_date,omitempty"`
	CreatedByID            uuid.UUID   `json:"-"`
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Value      string    `json:"value"`
}

// SubmitResponseRequest carries a full survey submission.
type SubmitResponseRequest struct {
	SurveyID     uuid.UUID
	UserID       uuid.UUID
	DepartmentID *uuid.UUID
	IPAddress    string
	UserAgent    string
	Answers      []AnswerInput
}

// ServiceParams bundles the dependencies for the surveys service.
type ServiceParams struct {
	Repo     Repository
	Users    creatorLookup
	Notifier notifier
}

type service struct {
	repo     Repository
	users    creatorLookup
	notifier notifier
	now      func() time.Time
}

// NewService wires surveys dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "surveys repository required")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		notifier: params.Notifier,
		now:      time.Now,
	}, nil
}

func (s *service) ListTemplates(ctx context.Context) []Template {
	return Templates()
}

func (s *service) CreateFromTemplate(ctx context.Context, req CreateSurveyRequest) (*SurveyDTO, error) {
	template, ok := TemplateByID(strings.TrimSpace(req.TemplateID))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey template not found")
	}
	if req.CreatedByID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must not precede start_date")
	}

	title := template.Title
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}
	description := &template.Description
	if req.Description != nil {
		description = req.Description
	}
	targetAll := true
	if req.TargetAllEmployees != nil {
		targetAll = *req.TargetAllEmployees
	}
	if !targetAll && len(req.TargetDepartments) == 0 && len(req.TargetUsers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "targeted surveys need at least one department or user")
	}

	survey := &models.Survey{
		Title:                  title,
		Description:            description,
		Status:                 enums.SurveyStatusDraft,
		AllowMultipleResponses: req.AllowMultipleResponses,
		TargetAllEmployees:     targetAll,
		TargetDepartments:      dbtypes.UUIDArray(req.TargetDepartments),
		TargetUsers:            dbtypes.UUIDArray(req.TargetUsers),
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
		CreatedByID:            req.CreatedByID,
	}
	for _, q := range template.Questions {
		minValue, maxValue := q.MinValue, q.MaxValue
		survey.Questions = append(survey.Questions, models.Question{
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			Order:    q.Order,
			Options:  dbtypes.StringArray{},
			MinValue: &minValue,
			MaxValue: &maxValue,
		})
	}

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create survey")
	}
	return surveyFromModel(survey, 0), nil
}

func (s *service) ListAll(ctx context.Context) ([]SurveyDTO, error) {
	surveys, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list surveys")
	}
	counts, err := s.repo.CountResponsesBySurvey(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count responses")
	}

	out := make([]SurveyDTO, 0, len(surveys))
	for i := range surveys {
		out = append(out, *surveyFromModel(&surveys[i], counts[surveys[i].ID]))
	}
	return out, nil
}

func (s *service) ListPublished(ctx context.Context, userID uuid.UUID, departmentID *uuid.UUID) ([]SurveyDTO, error) {
	surveys, err := s.repo.ListByStatus(ctx, enums.SurveyStatusPublished)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published surveys")
	}

	now := s.now()
	out := make([]SurveyDTO, 0, len(surveys))
	for i := range surveys {
		survey := &surveys[i]
		if !survey.IsOpenAt(now) {
			continue
		}
		if userID != uuid.Nil && !survey.Targets(userID, departmentID) {
			continue
		}
		out = append(out, *surveyFromModel(survey, 0))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SurveyDTO, error) {
	survey, err := s.findSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountResponses(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count responses")
	}
	return surveyFromModel(survey, count), nil
}

func (s *service) Publish(ctx context.Context, id uuid.UUID) (*SurveyDTO, error) {
	survey, err := s.transition(ctx, id, enums.SurveyStatusDraft, enums.SurveyStatusPublished)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		recipients, err := s.repo.ListTargetedUsers(ctx, survey)
		if err == nil {
			s.notifier.NotifySurveyPublished(ctx, survey, recipients)
		}
	}
	return surveyFromModel(survey, 0), nil
}

// Unpublish reverts a published survey to draft as long as nobody responded yet.
func (s *service) Unpublish(ctx context.Context, id uuid.UUID) (*SurveyDTO, error) {
	count, err := s.repo.CountResponses(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count responses")
	}
	if count > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "survey already has responses")
	}

	survey, err := s.transition(ctx, id, enums.SurveyStatusPublished, enums.SurveyStatusDraft)
	if err != nil {
		return nil, err
	}
	return surveyFromModel(survey, 0), nil
}

func (s *service) Close(ctx context.Context, id uuid.UUID) (*SurveyDTO, error) {
	survey, err := s.transition(ctx, id, enums.SurveyStatusPublished, enums.SurveyStatusClosed)
	if err != nil {
		return nil, err
	}

	count, _ := s.repo.CountResponses(ctx, id)
	if s.notifier != nil {
		s.notifier.NotifySurveyClosed(ctx, survey, count)
	}
	return surveyFromModel(survey, count), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	survey, err := s.findSurvey(ctx, id)
	if err != nil {
		return err
	}
	if survey.Status != enums.SurveyStatusDraft {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft surveys can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete survey")
	}
	return nil
}

func (s *service) SubmitResponse(ctx context.Context, req SubmitResponseRequest) (*ResponseDTO, error) {
	if req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	survey, err := s.findSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !survey.IsOpenAt(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "survey is not accepting responses")
	}
	if !survey.Targets(req.UserID, req.DepartmentID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "survey is not addressed to this user")
	}

	if !survey.AllowMultipleResponses {
		exists, err := s.repo.HasResponse(ctx, survey.ID, req.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check previous response")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "survey already answered")
		}
	}

	answers, err := validateAnswers(survey, req.Answers)
	if err != nil {
		return nil, err
	}

	response := &models.SurveyResponse{
		SurveyID:    survey.ID,
		UserID:      req.UserID,
		IsComplete:  true,
		CompletedAt: &now,
		Answers:     answers,
	}
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		response.IPAddress = &ip
	}
	if ua := strings.TrimSpace(req.UserAgent); ua != "" {
		response.UserAgent = &ua
	}

	if err := s.repo.CreateResponse(ctx, response); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store response")
	}

	if s.notifier != nil && s.users != nil {
		if respondent, err := s.users.FindByID(ctx, req.UserID); err == nil {
			count, _ := s.repo.CountResponses(ctx, survey.ID)
			s.notifier.NotifyResponseSubmitted(ctx, survey, respondent, count)
		}
	}

	return responseFromModel(response), nil
}

func (s *service) ResponseDetails(ctx context.Context, surveyID, responseID uuid.UUID) (*ResponseDTO, error) {
	response, err := s.repo.FindResponse(ctx, surveyID, responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "response not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find response")
	}
	return responseFromModel(response), nil
}

func (s *service) findSurvey(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "survey id required")
	}
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find survey")
	}
	return survey, nil
}

func (s *service) transition(ctx context.Context, id uuid.UUID, from, to enums.SurveyStatus) (*models.Survey, error) {
	survey, err := s.findSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.Status != from {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move survey from %s to %s", survey.Status, to))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, to, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update survey status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move survey from %s to %s", survey.Status, to))
	}
	survey.Status = to
	return survey, nil
}

func validateAnswers(survey *models.Survey, inputs []AnswerInput) ([]models.QuestionResponse, error) {
	questionsByID := make(map[uuid.UUID]*models.Question, len(survey.Questions))
	for i := range survey.Questions {
		questionsByID[survey.Questions[i].ID] = &survey.Questions[i]
	}

	answered := make(map[uuid.UUID]bool, len(inputs))
	answers := make([]models.QuestionResponse, 0, len(inputs))
	for _, input := range inputs {
		question, ok := questionsByID[input.QuestionID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("question %s does not belong to this survey", input.QuestionID))
		}
		if answered[input.QuestionID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("question %s answered more than once", input.QuestionID))
		}
		answered[input.QuestionID] = true

		value := strings.TrimSpace(input.Value)
		if value == "" {
			if question.Required {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("question %s requires an answer", input.QuestionID))
			}
			continue
		}
		if question.Type == enums.QuestionTypeRatingScale {
			rating, err := strconv.Atoi(value)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("question %s expects a numeric rating", input.QuestionID))
			}
			if question.MinValue != nil && rating < *question.MinValue {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("question %s rating below minimum %d", input.QuestionID, *question.MinValue))
			}
			if question.MaxValue != nil && rating > *question.MaxValue {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("question %s rating above maximum %d", input.QuestionID, *question.MaxValue))
			}
		}

		answers = append(answers, models.QuestionResponse{
			QuestionID: input.QuestionID,
			Value:      value,
		})
	}

	for id, question := range questionsByID {
		if question.Required && !answered[id] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("question %s requires an answer", id))
		}
	}

	return answers, nil
}
