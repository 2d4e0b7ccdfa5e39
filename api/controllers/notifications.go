package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/api/validators"
	"github.com/iscore-hr/helpdesk-backend/internal/mailer"
	"github.com/iscore-hr/helpdesk-backend/pkg/db/models"
	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/pagination"
)

// surveyAudience resolves a survey and the users it targets.
type surveyAudience interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	ListTargetedUsers(ctx context.Context, survey *models.Survey) ([]models.User, error)
}

// queueReporter exposes the in-memory queue snapshot.
type queueReporter interface {
	Status() mailer.Status
}

// SurveyInvitations sends invitation emails to every targeted employee in
// batches, synchronously, and reports the per-recipient outcome.
func SurveyInvitations(audience surveyAudience, svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if audience == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		surveyID, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		survey, err := audience.FindByID(r.Context(), surveyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "survey not found"))
			return
		}
		if survey.Status != enums.SurveyStatusPublished {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "survey is not published"))
			return
		}

		recipients, err := audience.ListTargetedUsers(r.Context(), survey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve recipients"))
			return
		}
		if len(recipients) == 0 {
			responses.WriteSuccess(w, mailer.BulkResult{})
			return
		}

		result := svc.SendBulkInvitations(r.Context(), survey, recipients)
		responses.WriteSuccess(w, result)
	}
}

// EmailLogs returns a cursor-paginated page of delivery attempts.
func EmailLogs(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		params := mailer.ListLogsParams{}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		if cursorStr := strings.TrimSpace(r.URL.Query().Get("cursor")); cursorStr != "" {
			cursor, err := pagination.ParseCursor(cursorStr)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}

		if statusStr := strings.TrimSpace(r.URL.Query().Get("status")); statusStr != "" {
			status, err := enums.ParseEmailStatus(statusStr)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		if templateStr := strings.TrimSpace(r.URL.Query().Get("template")); templateStr != "" {
			template, err := enums.ParseEmailTemplate(templateStr)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid template filter"))
				return
			}
			params.Template = &template
		}

		logs, next, err := svc.Logs(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"items": logs, "cursor": ""}
		if next != nil {
			payload["cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

// EmailStats returns the delivery summary over a trailing window of days.
func EmailStats(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		days := 0
		if daysStr := strings.TrimSpace(r.URL.Query().Get("days")); daysStr != "" {
			value, err := strconv.Atoi(daysStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "days must be a positive integer"))
				return
			}
			days = value
		}

		stats, err := svc.Stats(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type resendBody struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// EmailResend replays failed deliveries by log id.
func EmailResend(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		var body resendBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ResendFailed(r.Context(), body.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// QueueStatus returns the notification queue snapshot.
func QueueStatus(queue queueReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification queue unavailable"))
			return
		}
		responses.WriteSuccess(w, queue.Status())
	}
}
