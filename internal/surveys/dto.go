package surveys

import (
	"time"

	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

// QuestionDTO is the transport shape for a survey question.
type QuestionDTO struct {
	ID       uuid.UUID          `json:"id"`
	Text     string             `json:"text"`
	Type     enums.QuestionType `json:"type"`
	Required bool               `json:"required"`
	Order    int                `json:"order"`
	Options  []string           `json:"options,omitempty"`
	MinValue *int               `json:"min_value,omitempty"`
	MaxValue *int               `json:"max_value,omitempty"`
}

// SurveyDTO is the transport shape for a survey, optionally with response stats.
type SurveyDTO struct {
	ID                     uuid.UUID          `json:"id"`
	Title                  string             `json:"title"`
	Description            *string            `json:"description,omitempty"`
	Status                 enums.SurveyStatus `json:"status"`
	AllowMultipleResponses bool               `json:"allow_multiple_responses"`
	TargetAllEmployees     bool               `json:"target_all_employees"`
	TargetDepartments      []uuid.UUID        `json:"target_departments"`
	TargetUsers            []uuid.UUID        `json:"target_users"`
	StartDate              *time.Time         `json:"start_date,omitempty"`
	EndDate                *time.Time         `json:"end_date,omitempty"`
	CreatedByID            uuid.UUID          `json:"created_by_id"`
	Questions              []QuestionDTO      `json:"questions"`
	ResponseCount          int64              `json:"response_count"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// AnswerDTO is one stored answer inside a response detail view.
type AnswerDTO struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
}

// ResponseDTO is the transport shape for a single survey response.
type ResponseDTO struct {
	ID          uuid.UUID   `json:"id"`
	SurveyID    uuid.UUID   `json:"survey_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Respondent  string      `json:"respondent,omitempty"`
	IsComplete  bool        `json:"is_complete"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Answers     []AnswerDTO `json:"answers"`
	CreatedAt   time.Time   `json:"created_at"`
}

func surveyFromModel(s *models.Survey, responseCount int64) *SurveyDTO {
	if s == nil {
		return nil
	}

	questions := make([]QuestionDTO, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, QuestionDTO{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			Order:    q.Order,
			Options:  []string(q.Options),
			MinValue: q.MinValue,
			MaxValue: q.MaxValue,
		})
	}

	return &SurveyDTO{
		ID:                     s.ID,
		Title:                  s.Title,
		Description:            s.Description,
		Status:                 s.Status,
		AllowMultipleResponses: s.AllowMultipleResponses,
		TargetAllEmployees:     s.TargetAllEmployees,
		TargetDepartments:      []uuid.UUID(s.TargetDepartments),
		TargetUsers:            []uuid.UUID(s.TargetUsers),
		StartDate:              s.StartDate,
		EndDate:                s.EndDate,
		CreatedByID:            s.CreatedByID,
		Questions:              questions,
		ResponseCount:          responseCount,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
}

func responseFromModel(r *models.SurveyResponse) *ResponseDTO {
	if r == nil {
		return nil
	}

	answers := make([]AnswerDTO, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, AnswerDTO{QuestionID: a.QuestionID, Value: a.Value})
	}

	dto := &ResponseDTO{
		ID:          r.ID,
		SurveyID:    r.SurveyID,
		UserID:      r.UserID,
		IsComplete:  r.IsComplete,
		CompletedAt: r.CompletedAt,
		Answers:     answers,
		CreatedAt:   r.CreatedAt,
	}
	if r.User != nil {
		dto.Respondent = r.User.FullName()
	}
	return dto
}
