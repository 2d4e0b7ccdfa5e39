package mailer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/sendgrid"
)

// Default priorities per notification type. Invitations go first so employees
// see open surveys before HR sees the bookkeeping emails.
const (
	priorityInvitation = 3
	priorityLifecycle  = 2
	priorityWelcome    = 2
	priorityResponse   = 1
)

// enqueuer is the queue surface the notifier depends on.
type enqueuer interface {
	Enqueue(item Item) error
}

// Notifier translates domain events into queued notifications. It satisfies
// the narrow notifier interfaces declared by the surveys and users services.
type Notifier struct {
	queue       enqueuer
	logg        *logger.Logger
	frontendURL string
}

// NewNotifier wires the notifier to the queue and company branding.
func NewNotifier(queue enqueuer, logg *logger.Logger, company config.CompanyConfig) *Notifier {
	return &Notifier{
		queue:       queue,
		logg:        logg,
		frontendURL: strings.TrimRight(company.FrontendURL, "/"),
	}
}

// NotifySurveyPublished queues one invitation per recipient plus a publish
// summary for the survey creator.
func (n *Notifier) NotifySurveyPublished(ctx context.Context, survey *models.Survey, recipients []models.User) {
	for i := range recipients {
		recipient := &recipients[i]
		userID := recipient.ID
		relatedID := survey.ID
		n.enqueue(ctx, Item{
			Template: enums.EmailTemplateSurveyInvitation,
			To: sendgrid.Address{
				Email: recipient.Email,
				Name:  recipient.FullName(),
			},
			UserID:    &userID,
			RelatedID: &relatedID,
			Priority:  priorityInvitation,
			Data:      invitationData(n.frontendURL, survey, recipient),
		})
	}

	creator := survey.CreatedBy
	if creator == nil {
		n.warn(ctx, survey, "survey creator not loaded, skipping publish notification")
		return
	}
	n.enqueueCreator(ctx, survey, creator, enums.EmailTemplateSurveyPublished, TemplateData{
		"userName":      creator.FullName(),
		"surveyTitle":   survey.Title,
		"employeeCount": len(recipients),
		"surveyUrl":     hrSurveyURL(n.frontendURL, survey.ID),
	})
}

// NotifySurveyClosed queues the closing summary for the survey creator.
func (n *Notifier) NotifySurveyClosed(ctx context.Context, survey *models.Survey, responseCount int64) {
	creator := survey.CreatedBy
	if creator == nil {
		n.warn(ctx, survey, "survey creator not loaded, skipping close notification")
		return
	}
	n.enqueueCreator(ctx, survey, creator, enums.EmailTemplateSurveyClosed, TemplateData{
		"userName":      creator.FullName(),
		"surveyTitle":   survey.Title,
		"responseCount": responseCount,
		"surveyUrl":     hrSurveyURL(n.frontendURL, survey.ID),
	})
}

// NotifyResponseSubmitted queues a per-response heads-up for the creator.
func (n *Notifier) NotifyResponseSubmitted(ctx context.Context, survey *models.Survey, respondent *models.User, responseCount int64) {
	creator := survey.CreatedBy
	if creator == nil || respondent == nil {
		n.warn(ctx, survey, "missing creator or respondent, skipping response notification")
		return
	}
	n.enqueueCreator(ctx, survey, creator, enums.EmailTemplateResponseNotification, TemplateData{
		"userName":      creator.FullName(),
		"surveyTitle":   survey.Title,
		"employeeName":  respondent.FullName(),
		"responseCount": responseCount,
		"surveyUrl":     hrSurveyURL(n.frontendURL, survey.ID),
	})
}

// EnqueueWelcome queues the onboarding email for a newly created account.
func (n *Notifier) EnqueueWelcome(email, fullName, role, tempPassword string) error {
	data := TemplateData{
		"userName": fullName,
		"userRole": role,
		"loginUrl": n.frontendURL + "/login",
	}
	if tempPassword != "" {
		data["tempPassword"] = tempPassword
	}
	return n.queue.Enqueue(Item{
		Template: enums.EmailTemplateWelcome,
		To:       sendgrid.Address{Email: email, Name: fullName},
		Priority: priorityWelcome,
		Data:     data,
	})
}

func (n *Notifier) enqueueCreator(ctx context.Context, survey *models.Survey, creator *models.User, templateType enums.EmailTemplate, data TemplateData) {
	userID := creator.ID
	relatedID := survey.ID
	priority := priorityLifecycle
	if templateType == enums.EmailTemplateResponseNotification {
		priority = priorityResponse
	}
	n.enqueue(ctx, Item{
		Template: templateType,
		To: sendgrid.Address{
			Email: creator.Email,
			Name:  creator.FullName(),
		},
		UserID:    &userID,
		RelatedID: &relatedID,
		Priority:  priority,
		Data:      data,
	})
}

func (n *Notifier) enqueue(ctx context.Context, item Item) {
	if err := n.queue.Enqueue(item); err != nil && n.logg != nil {
		n.logg.Error(n.logg.WithFields(ctx, map[string]any{
			"template": item.Template.String(),
			"email":    item.To.Email,
		}), "enqueue notification", err)
	}
}

func (n *Notifier) warn(ctx context.Context, survey *models.Survey, msg string) {
	if n.logg == nil {
		return
	}
	n.logg.Warn(n.logg.WithSurveyID(ctx, survey.ID.String()), msg)
}

// invitationData builds the merge fields for one survey invitation.
func invitationData(frontendURL string, survey *models.Survey, recipient *models.User) TemplateData {
	data := TemplateData{
		"userName":    recipient.FullName(),
		"surveyTitle": survey.Title,
		"surveyUrl":   surveyURL(frontendURL, survey.ID),
	}
	if survey.Description != nil && *survey.Description != "" {
		data["surveyDescription"] = *survey.Description
	}
	return data
}

func surveyURL(frontendURL string, surveyID uuid.UUID) string {
	return strings.TrimRight(frontendURL, "/") + "/surveys/" + surveyID.String()
}

func hrSurveyURL(frontendURL string, surveyID uuid.UUID) string {
	return strings.TrimRight(frontendURL, "/") + "/hr/surveys/" + surveyID.String()
}
