package enums

import "fmt"

// SurveyStatus maps to the survey_status enum in Postgres.
//
// The allowed lifecycle is DRAFT -> PUBLISHED -> CLOSED; transitions
// never move backwards.
type SurveyStatus string

const (
	SurveyStatusDraft     SurveyStatus = "DRAFT"
	SurveyStatusPublished SurveyStatus = "PUBLISHED"
	SurveyStatusClosed    SurveyStatus = "CLOSED"
)

var validSurveyStatuses = []SurveyStatus{
	SurveyStatusDraft,
	SurveyStatusPublished,
	SurveyStatusClosed,
}

// String implements fmt.Stringer.
func (s SurveyStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SurveyStatus.
func (s SurveyStatus) IsValid() bool {
	for _, candidate := range validSurveyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s SurveyStatus) CanTransitionTo(next SurveyStatus) bool {
	switch s {
	case SurveyStatusDraft:
		return next == SurveyStatusPublished
	case SurveyStatusPublished:
		return next == SurveyStatusClosed
	default:
		return false
	}
}

// ParseSurveyStatus converts raw input into a SurveyStatus.
func ParseSurveyStatus(value string) (SurveyStatus, error) {
	for _, candidate := range validSurveyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid survey status %q", value)
}
