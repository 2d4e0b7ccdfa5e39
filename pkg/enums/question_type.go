package enums

import "fmt"

// QuestionType maps to the question_type enum in Postgres.
type QuestionType string

const (
	QuestionTypeRatingScale    QuestionType = "RATING_SCALE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeCheckbox       QuestionType = "CHECKBOX"
	QuestionTypeTextarea       QuestionType = "TEXTAREA"
)

var validQuestionTypes = []QuestionType{
	QuestionTypeRatingScale,
	QuestionTypeMultipleChoice,
	QuestionTypeCheckbox,
	QuestionTypeTextarea,
}

// IsValid reports whether the value is a known QuestionType.
func (q QuestionType) IsValid() bool {
	for _, candidate := range validQuestionTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuestionType converts raw input into a QuestionType.
func ParseQuestionType(value string) (QuestionType, error) {
	for _, candidate := range validQuestionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid question type %q", value)
}
