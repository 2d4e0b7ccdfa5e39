package enums

import "fmt"

// EmailTemplate identifies a renderable notification template.
type EmailTemplate string

const (
	EmailTemplateSurveyInvitation     EmailTemplate = "survey_invitation"
	EmailTemplateSurveyPublished      EmailTemplate = "survey_published"
	EmailTemplateSurveyClosed         EmailTemplate = "survey_closed"
	EmailTemplateResponseNotification EmailTemplate = "response_notification"
	EmailTemplateWelcome              EmailTemplate = "welcome"
)

var validEmailTemplates = []EmailTemplate{
	EmailTemplateSurveyInvitation,
	EmailTemplateSurveyPublished,
	EmailTemplateSurveyClosed,
	EmailTemplateResponseNotification,
	EmailTemplateWelcome,
}

// String implements fmt.Stringer.
func (e EmailTemplate) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EmailTemplate.
func (e EmailTemplate) IsValid() bool {
	for _, candidate := range validEmailTemplates {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmailTemplate converts raw input into an EmailTemplate.
func ParseEmailTemplate(value string) (EmailTemplate, error) {
	for _, candidate := range validEmailTemplates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email template %q", value)
}
