package analytics

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

const (
	recentPerSurvey = 10
	recentCap       = 10
	// unknownDepartment buckets respondents without a department assignment.
	unknownDepartment = "Unknown"
)

// QuestionStats aggregates the answers collected for one question.
type QuestionStats struct {
	QuestionID    uuid.UUID          `json:"question_id"`
	Text          string             `json:"text"`
	Type          enums.QuestionType `json:"type"`
	ResponseCount int                `json:"response_count"`
	Average       *float64           `json:"average,omitempty"`
	Distribution  map[string]int     `json:"distribution"`
}

// SurveyResults is the full per-survey aggregation.
type SurveyResults struct {
	SurveyID       uuid.UUID       `json:"survey_id"`
	Title          string          `json:"title"`
	TotalResponses int             `json:"total_responses"`
	Questions      []QuestionStats `json:"questions"`
}

// DepartmentCount is one slice of the department breakdown.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// SurveySummary is the dashboard view of one published survey.
type SurveySummary struct {
	SurveyID       uuid.UUID      `json:"survey_id"`
	Title          string         `json:"title"`
	ResponseCount  int            `json:"response_count"`
	QuestionCounts map[string]int `json:"question_counts"`
}

// RecentResponse is one entry of the merged recent activity feed.
type RecentResponse struct {
	SurveyID    uuid.UUID `json:"survey_id"`
	SurveyTitle string    `json:"survey_title"`
	Respondent  string    `json:"respondent"`
	Department  string    `json:"department"`
	CompletedAt time.Time `json:"completed_at"`
}

// Dashboard aggregates activity across all published surveys.
type Dashboard struct {
	TotalSurveys    int               `json:"total_surveys"`
	TotalResponses  int               `json:"total_responses"`
	Departments     []DepartmentCount `json:"departments"`
	Surveys         []SurveySummary   `json:"surveys"`
	RecentResponses []RecentResponse  `json:"recent_responses"`
}

// Service exposes the read-only aggregations used by HR dashboards.
type Service interface {
	SurveyResults(ctx context.Context, surveyID uuid.UUID) (*SurveyResults, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo Repository
}

// NewService wires analytics dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) SurveyResults(ctx context.Context, surveyID uuid.UUID) (*SurveyResults, error) {
	if surveyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "survey id required")
	}
	survey, err := s.repo.FindSurvey(ctx, surveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find survey")
	}

	responses, err := s.repo.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list responses")
	}

	valuesByQuestion := make(map[uuid.UUID][]string)
	for _, response := range responses {
		for _, answer := range response.Answers {
			valuesByQuestion[answer.QuestionID] = append(valuesByQuestion[answer.QuestionID], answer.Value)
		}
	}

	questions := make([]QuestionStats, 0, len(survey.Questions))
	for _, question := range survey.Questions {
		questions = append(questions, aggregateQuestion(question, valuesByQuestion[question.ID]))
	}

	return &SurveyResults{
		SurveyID:       survey.ID,
		Title:          survey.Title,
		TotalResponses: len(responses),
		Questions:      questions,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	surveys, err := s.repo.ListPublishedSurveys(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published surveys")
	}

	dashboard := &Dashboard{
		Departments:     []DepartmentCount{},
		Surveys:         []SurveySummary{},
		RecentResponses: []RecentResponse{},
	}
	dashboard.TotalSurveys = len(surveys)

	departmentCounts := map[string]int{}
	var recent []RecentResponse

	for i := range surveys {
		survey := &surveys[i]
		responses, err := s.repo.ListResponses(ctx, survey.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list responses")
		}

		summary := SurveySummary{
			SurveyID:       survey.ID,
			Title:          survey.Title,
			ResponseCount:  len(responses),
			QuestionCounts: map[string]int{},
		}
		answered := map[uuid.UUID]int{}
		for _, response := range responses {
			for _, answer := range response.Answers {
				answered[answer.QuestionID]++
			}
			departmentCounts[departmentName(response.User)]++
		}
		for _, question := range survey.Questions {
			summary.QuestionCounts[question.Text] = answered[question.ID]
		}
		dashboard.TotalResponses += len(responses)
		dashboard.Surveys = append(dashboard.Surveys, summary)

		latest, err := s.repo.ListRecentResponses(ctx, survey.ID, recentPerSurvey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent responses")
		}
		for _, response := range latest {
			if response.CompletedAt == nil {
				continue
			}
			entry := RecentResponse{
				SurveyID:    survey.ID,
				SurveyTitle: survey.Title,
				Department:  departmentName(response.User),
				CompletedAt: *response.CompletedAt,
			}
			if response.User != nil {
				entry.Respondent = response.User.FullName()
			}
			recent = append(recent, entry)
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CompletedAt.After(recent[j].CompletedAt)
	})
	if len(recent) > recentCap {
		recent = recent[:recentCap]
	}
	dashboard.RecentResponses = recent

	names := make([]string, 0, len(departmentCounts))
	for name := range departmentCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dashboard.Departments = append(dashboard.Departments, DepartmentCount{
			Department: name,
			Count:      departmentCounts[name],
		})
	}

	return dashboard, nil
}

// aggregateQuestion computes count, mean and distribution for one question.
// Non-numeric values still count toward the distribution but never the mean.
func aggregateQuestion(question models.Question, values []string) QuestionStats {
	stats := QuestionStats{
		QuestionID:    question.ID,
		Text:          question.Text,
		Type:          question.Type,
		ResponseCount: len(values),
		Distribution:  map[string]int{},
	}

	var sum float64
	var numeric int
	for _, value := range values {
		stats.Distribution[value]++
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			sum += parsed
			numeric++
		}
	}
	if numeric > 0 {
		average := sum / float64(numeric)
		stats.Average = &average
	}
	return stats
}

func departmentName(user *models.User) string {
	if user == nil || user.Department == nil {
		return unknownDepartment
	}
	return user.Department.Name
}
