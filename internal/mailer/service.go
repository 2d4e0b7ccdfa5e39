package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	dbtypes "github.com/iscore-hr/helpdesk-backend/pkg/db/types"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/metrics"
	"github.com/iscore-hr/helpdesk-backend/pkg/pagination"
	"github.com/iscore-hr/helpdesk-backend/pkg/sendgrid"
)

const (
	defaultBatchSize  = 10
	defaultRetryDelay = time.Second
	defaultStatsDays  = 7
)

// sendClient is the provider surface the adapter depends on.
type sendClient interface {
	Send(ctx context.Context, req sendgrid.SendRequest) (string, error)
}

// DeliverRequest describes one outbound notification.
type DeliverRequest struct {
	Template  enums.EmailTemplate
	To        sendgrid.Address
	UserID    *uuid.UUID
	RelatedID *uuid.UUID
	Data      TemplateData
}

// BulkResult counts per-recipient outcomes of a fan-out send.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// ResendResult extends BulkResult with logs that were not in a FAILED state.
type ResendResult struct {
	BulkResult
	Skipped int `json:"skipped"`
}

// DeliveryStats is the windowed outcome summary exposed to HR.
type DeliveryStats struct {
	LogStats
	WindowDays  int     `json:"window_days"`
	SuccessRate float64 `json:"success_rate"`
}

// Service delivers notifications through the email provider and records every
// attempt in the email log.
type Service interface {
	Deliver(ctx context.Context, req DeliverRequest) error
	DeliverOnce(ctx context.Context, req DeliverRequest) error
	SendBulkInvitations(ctx context.Context, survey *models.Survey, recipients []models.User) BulkResult
	Logs(ctx context.Context, params ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error)
	Stats(ctx context.Context, days int) (*DeliveryStats, error)
	ResendFailed(ctx context.Context, ids []uuid.UUID) (*ResendResult, error)
}

// ServiceParams bundles the dependencies for the delivery adapter.
type ServiceParams struct {
	Sender   sendClient
	Logs     Repository
	Renderer *Renderer
	Logger   *logger.Logger
	Metrics  *metrics.MailerMetrics
	Email    config.EmailConfig
	SendGrid config.SendGridConfig
	Company  config.CompanyConfig

	// Sleep is swapped out in tests.
	Sleep func(time.Duration)
}

type service struct {
	sender   sendClient
	logs     Repository
	renderer *Renderer
	logg     *logger.Logger
	metrics  *metrics.MailerMetrics
	emailCfg config.EmailConfig
	from     sendgrid.Address
	company  config.CompanyConfig
	sleep    func(time.Duration)
	now      func() time.Time
}

// NewService wires the delivery adapter.
func NewService(params ServiceParams) (Service, error) {
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if params.Logs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email log repository required")
	}
	if params.Renderer == nil {
		params.Renderer = NewRenderer(params.Company)
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &service{
		sender:   params.Sender,
		logs:     params.Logs,
		renderer: params.Renderer,
		logg:     params.Logger,
		metrics:  params.Metrics,
		emailCfg: params.Email,
		from: sendgrid.Address{
			Email: params.SendGrid.FromEmail,
			Name:  params.SendGrid.FromName,
		},
		company: params.Company,
		sleep:   sleep,
		now:     time.Now,
	}, nil
}

// Deliver renders and sends one notification, retrying failed attempts with a
// constant delay. Every attempt leaves an email log row.
func (s *service) Deliver(ctx context.Context, req DeliverRequest) error {
	attempts := s.emailCfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return s.deliver(ctx, req, attempts)
}

// DeliverOnce sends a single attempt. The notification queue owns retries on
// this path, so a failure surfaces immediately.
func (s *service) DeliverOnce(ctx context.Context, req DeliverRequest) error {
	return s.deliver(ctx, req, 1)
}

func (s *service) deliver(ctx context.Context, req DeliverRequest, attempts int) error {
	rendered, err := s.renderer.Render(req.Template, req.Data)
	if err != nil {
		s.appendLog(ctx, req, 0, "", err)
		return err
	}

	delay := s.emailCfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	attempt := 0
	return retry.Do(ctx, retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay)), func(ctx context.Context) error {
		attempt++
		if sendErr := s.attempt(ctx, req, rendered, attempt); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
}

func (s *service) attempt(ctx context.Context, req DeliverRequest, rendered *RenderedEmail, attempt int) error {
	start := s.now()
	messageID, err := s.sender.Send(ctx, sendgrid.SendRequest{
		To:      req.To,
		From:    s.from,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	})
	s.metrics.ObserveSendDuration(req.Template.String(), time.Since(start))

	s.appendLog(ctx, req, attempt, messageID, err)
	if err != nil {
		s.metrics.IncFailed(req.Template.String())
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"template": req.Template.String(),
				"email":    req.To.Email,
				"attempt":  attempt,
			}), "email send attempt failed")
		}
		return err
	}
	s.metrics.IncSent(req.Template.String())
	return nil
}

// appendLog records one attempt. The log is an audit trail, so a storage
// failure is reported but never turns a delivered email into an error.
func (s *service) appendLog(ctx context.Context, req DeliverRequest, attempt int, messageID string, sendErr error) {
	entry := &models.EmailLog{
		TemplateType: req.Template,
		UserID:       req.UserID,
		RelatedID:    req.RelatedID,
		Email:        req.To.Email,
		Status:       enums.EmailStatusSent,
		Metadata:     logMetadata(req.Data, attempt, messageID),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = enums.EmailStatusFailed
		entry.Error = &msg
	}
	if err := s.logs.Append(ctx, entry); err != nil && s.logg != nil {
		s.logg.Error(ctx, "append email log", err)
	}
}

func logMetadata(data TemplateData, attempt int, messageID string) dbtypes.JSONMap {
	metadata := make(dbtypes.JSONMap, len(data)+2)
	for key, value := range data {
		metadata[key] = value
	}
	if attempt > 0 {
		metadata["attempt"] = attempt
	}
	if messageID != "" {
		metadata["sendgrid_message_id"] = messageID
	}
	return metadata
}

// SendBulkInvitations fans invitations out in fixed-size batches with a pause
// between batches so the provider rate limits are respected.
func (s *service) SendBulkInvitations(ctx context.Context, survey *models.Survey, recipients []models.User) BulkResult {
	batchSize := s.emailCfg.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	var (
		mu     sync.Mutex
		result BulkResult
		errs   error
	)
	for start := 0; start < len(recipients); start += batchSize {
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			recipient := recipients[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Deliver(ctx, s.invitationRequest(survey, &recipient))
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					errs = multierr.Append(errs, err)
					return
				}
				result.Success++
			}()
		}
		wg.Wait()

		if end < len(recipients) && s.emailCfg.BatchDelay > 0 {
			s.sleep(s.emailCfg.BatchDelay)
		}
	}

	if errs != nil && s.logg != nil {
		s.logg.Error(s.logg.WithSurveyID(ctx, survey.ID.String()), "bulk invitation send finished with failures", errs)
	}
	return result
}

func (s *service) invitationRequest(survey *models.Survey, recipient *models.User) DeliverRequest {
	userID := recipient.ID
	relatedID := survey.ID
	return DeliverRequest{
		Template: enums.EmailTemplateSurveyInvitation,
		To: sendgrid.Address{
			Email: recipient.Email,
			Name:  recipient.FullName(),
		},
		UserID:    &userID,
		RelatedID: &relatedID,
		Data:      invitationData(s.company.FrontendURL, survey, recipient),
	}
}

func (s *service) Logs(ctx context.Context, params ListLogsParams) ([]models.EmailLog, *pagination.Cursor, error) {
	logs, next, err := s.logs.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list email logs")
	}
	return logs, next, nil
}

func (s *service) Stats(ctx context.Context, days int) (*DeliveryStats, error) {
	if days < 1 {
		days = defaultStatsDays
	}
	since := s.now().AddDate(0, 0, -days)
	stats, err := s.logs.Stats(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email log stats")
	}

	out := &DeliveryStats{LogStats: *stats, WindowDays: days}
	if stats.Total > 0 {
		out.SuccessRate = float64(stats.Sent) / float64(stats.Total) * 100
	}
	return out, nil
}

// ResendFailed replays FAILED log entries with the payload captured in their
// metadata. Entries in any other state are skipped.
func (s *service) ResendFailed(ctx context.Context, ids []uuid.UUID) (*ResendResult, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one email log id required")
	}
	logs, err := s.logs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load email logs")
	}

	result := &ResendResult{}
	for i := range logs {
		entry := &logs[i]
		if entry.Status != enums.EmailStatusFailed {
			result.Skipped++
			continue
		}

		req := DeliverRequest{
			Template:  entry.TemplateType,
			To:        sendgrid.Address{Email: entry.Email},
			UserID:    entry.UserID,
			RelatedID: entry.RelatedID,
			Data:      dataFromMetadata(entry.Metadata),
		}
		if err := s.DeliverOnce(ctx, req); err != nil {
			result.Failed++
			continue
		}
		result.Success++
	}
	return result, nil
}

// dataFromMetadata strips the bookkeeping keys added by logMetadata.
func dataFromMetadata(metadata dbtypes.JSONMap) TemplateData {
	data := make(TemplateData, len(metadata))
	for key, value := range metadata {
		if key == "attempt" || key == "sendgrid_message_id" {
			continue
		}
		data[key] = value
	}
	return data
}
