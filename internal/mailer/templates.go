package mailer

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

// TemplateData carries the per-template merge fields. Keys use the wire names
// stored in the email log metadata so failed sends can be replayed as-is.
type TemplateData map[string]any

// RenderedEmail is the subject/body pair produced for one notification.
type RenderedEmail struct {
	Subject string
	HTML    string
}

// requiredFields lists the merge fields each template cannot render without.
var requiredFields = map[enums.EmailTemplate][]string{
	enums.EmailTemplateSurveyInvitation:     {"userName", "surveyTitle", "surveyUrl"},
	enums.EmailTemplateSurveyPublished:      {"userName", "surveyTitle", "employeeCount"},
	enums.EmailTemplateSurveyClosed:         {"userName", "surveyTitle", "responseCount"},
	enums.EmailTemplateResponseNotification: {"userName", "surveyTitle", "employeeName"},
	enums.EmailTemplateWelcome:              {"userName", "userRole"},
}

// ValidatePayload checks that the template is known and every required merge
// field is present and non-empty. Callers reject bad payloads before they ever
// reach the queue.
func ValidatePayload(templateType enums.EmailTemplate, data TemplateData) error {
	fields, ok := requiredFields[templateType]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown email template %q", templateType))
	}

	var missing []string
	for _, field := range fields {
		value, present := data[field]
		if !present || value == nil {
			missing = append(missing, field)
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("template %s missing required fields: %s", templateType, strings.Join(missing, ", "))).
			WithDetails(missing)
	}
	return nil
}

const baseLayout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px;">
      <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background-color:#1f3a5f;padding:20px 32px;">
          <span style="color:#ffffff;font-size:20px;font-weight:bold;">{{.companyName}} HR HelpDesk</span>
        </td></tr>
        <tr><td style="padding:32px;color:#333333;font-size:15px;line-height:1.6;">
          {{template "body" .}}
        </td></tr>
        <tr><td style="padding:16px 32px;background-color:#f4f4f7;color:#888888;font-size:12px;">
          This is an automated message from {{.companyName}} HR HelpDesk.
          {{if .companyWebsite}}<a href="{{.companyWebsite}}" style="color:#1f3a5f;">{{.companyWebsite}}</a>{{end}}
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

var templateBodies = map[enums.EmailTemplate]string{
	enums.EmailTemplateSurveyInvitation: `{{define "body"}}
<p>Hello {{.userName}},</p>
<p>You have been invited to participate in the survey <strong>{{.surveyTitle}}</strong>.</p>
{{if .surveyDescription}}<p>{{.surveyDescription}}</p>{{end}}
<p>Your feedback is anonymous to your colleagues and helps us improve the workplace.</p>
<p><a href="{{.surveyUrl}}" style="display:inline-block;padding:12px 24px;background-color:#1f3a5f;color:#ffffff;text-decoration:none;border-radius:4px;">Take the Survey</a></p>
{{end}}`,

	enums.EmailTemplateSurveyPublished: `{{define "body"}}
<p>Hello {{.userName}},</p>
<p>Your survey <strong>{{.surveyTitle}}</strong> has been published.</p>
<p>Invitations were sent to <strong>{{.employeeCount}}</strong> employees.</p>
{{if .surveyUrl}}<p><a href="{{.surveyUrl}}" style="color:#1f3a5f;">View survey status</a></p>{{end}}
{{end}}`,

	enums.EmailTemplateSurveyClosed: `{{define "body"}}
<p>Hello {{.userName}},</p>
<p>Your survey <strong>{{.surveyTitle}}</strong> has been closed.</p>
<p>It collected <strong>{{.responseCount}}</strong> responses. The results are now available on your dashboard.</p>
{{if .surveyUrl}}<p><a href="{{.surveyUrl}}" style="color:#1f3a5f;">View results</a></p>{{end}}
{{end}}`,

	enums.EmailTemplateResponseNotification: `{{define "body"}}
<p>Hello {{.userName}},</p>
<p><strong>{{.employeeName}}</strong> has submitted a response to <strong>{{.surveyTitle}}</strong>.</p>
{{if .responseCount}}<p>The survey now has <strong>{{.responseCount}}</strong> responses.</p>{{end}}
{{if .surveyUrl}}<p><a href="{{.surveyUrl}}" style="color:#1f3a5f;">View responses</a></p>{{end}}
{{end}}`,

	enums.EmailTemplateWelcome: `{{define "body"}}
<p>Hello {{.userName}},</p>
<p>Your account has been created with the role <strong>{{.userRole}}</strong>.</p>
{{if .tempPassword}}<p>Your temporary password is <strong>{{.tempPassword}}</strong>. Please change it after your first login.</p>{{end}}
{{if .loginUrl}}<p><a href="{{.loginUrl}}" style="display:inline-block;padding:12px 24px;background-color:#1f3a5f;color:#ffffff;text-decoration:none;border-radius:4px;">Log In</a></p>{{end}}
{{end}}`,
}

var compiledTemplates = func() map[enums.EmailTemplate]*template.Template {
	out := make(map[enums.EmailTemplate]*template.Template, len(templateBodies))
	for templateType, body := range templateBodies {
		out[templateType] = template.Must(
			template.Must(template.New(templateType.String()).Parse(baseLayout)).Parse(body))
	}
	return out
}()

// Renderer produces branded subject/body pairs for outbound notifications.
type Renderer struct {
	company config.CompanyConfig
}

// NewRenderer binds the renderer to the configured company branding.
func NewRenderer(company config.CompanyConfig) *Renderer {
	return &Renderer{company: company}
}

// Render validates the payload and produces the final email for the template.
func (r *Renderer) Render(templateType enums.EmailTemplate, data TemplateData) (*RenderedEmail, error) {
	if err := ValidatePayload(templateType, data); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(data)+2)
	for key, value := range data {
		merged[key] = value
	}
	merged["companyName"] = r.company.Name
	merged["companyWebsite"] = r.company.Website

	var body strings.Builder
	if err := compiledTemplates[templateType].Execute(&body, merged); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render email template")
	}

	return &RenderedEmail{
		Subject: r.subject(templateType, data),
		HTML:    body.String(),
	}, nil
}

func (r *Renderer) subject(templateType enums.EmailTemplate, data TemplateData) string {
	title := stringField(data, "surveyTitle")
	switch templateType {
	case enums.EmailTemplateSurveyInvitation:
		return "Survey Invitation: " + title
	case enums.EmailTemplateSurveyPublished:
		return "Survey Published: " + title
	case enums.EmailTemplateSurveyClosed:
		return "Survey Closed: " + title
	case enums.EmailTemplateResponseNotification:
		return "New Survey Response: " + title
	case enums.EmailTemplateWelcome:
		return fmt.Sprintf("Welcome to %s HR HelpDesk", r.company.Name)
	default:
		return ""
	}
}

func stringField(data TemplateData, key string) string {
	if value, ok := data[key]; ok {
		return fmt.Sprintf("%v", value)
	}
	return ""
}
