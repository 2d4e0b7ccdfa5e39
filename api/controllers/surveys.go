package controllers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/api/middleware"
	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/api/validators"
	"github.com/iscore-hr/helpdesk-backend/internal/surveys"
	"github.com/iscore-hr/helpdesk-backend/internal/users"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
)

// profileSource resolves the calling employee's record, used to scope
// published surveys and attribute responses to a department.
type profileSource interface {
	Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
}

// SurveyTemplates lists the predefined survey templates.
func SurveyTemplates(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.ListTemplates(r.Context()))
	}
}

// SurveyCreate instantiates a survey from a template.
func SurveyCreate(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		creatorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body surveys.CreateSurveyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.CreatedByID = creatorID

		created, err := svc.CreateFromTemplate(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SurveyListAll returns every survey regardless of status, for the HR console.
func SurveyListAll(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SurveyListPublished returns the open surveys targeted at the caller.
func SurveyListPublished(svc surveys.Service, profiles profileSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var departmentID *uuid.UUID
		if profiles != nil {
			profile, err := profiles.Get(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			departmentID = profile.DepartmentID
		}

		list, err := svc.ListPublished(r.Context(), userID, departmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SurveyGet returns one survey with its questions.
func SurveyGet(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		survey, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, survey)
	}
}

// SurveyPublish moves a draft survey into the published state.
func SurveyPublish(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return surveyTransition(svc, logg, svcPublish)
}

// SurveyUnpublish moves a published survey back to draft.
func SurveyUnpublish(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return surveyTransition(svc, logg, svcUnpublish)
}

// SurveyClose permanently closes a published survey.
func SurveyClose(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return surveyTransition(svc, logg, svcClose)
}

type transitionFn func(svc surveys.Service, ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error)

func svcPublish(svc surveys.Service, ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return svc.Publish(ctx, id)
}

func svcUnpublish(svc surveys.Service, ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return svc.Unpublish(ctx, id)
}

func svcClose(svc surveys.Service, ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return svc.Close(ctx, id)
}

func surveyTransition(svc surveys.Service, logg *logger.Logger, transition transitionFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		survey, err := transition(svc, r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, survey)
	}
}

// SurveyDelete removes a draft survey.
func SurveyDelete(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type submitResponseBody struct {
	Answers []surveys.AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// SurveyRespond records the caller's submission for a survey.
func SurveyRespond(svc surveys.Service, profiles profileSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		surveyID, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body submitResponseBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var departmentID *uuid.UUID
		if profiles != nil {
			profile, err := profiles.Get(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			departmentID = profile.DepartmentID
		}

		response, err := svc.SubmitResponse(r.Context(), surveys.SubmitResponseRequest{
			SurveyID:     surveyID,
			UserID:       userID,
			DepartmentID: departmentID,
			IPAddress:    requestIP(r),
			UserAgent:    r.UserAgent(),
			Answers:      body.Answers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, response)
	}
}

// SurveyResponseDetail returns one stored response with its answers.
func SurveyResponseDetail(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surveys service unavailable"))
			return
		}

		surveyID, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}
		responseID, err := uuid.Parse(chi.URLParam(r, "responseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid response id"))
			return
		}

		detail, err := svc.ResponseDetails(r.Context(), surveyID, responseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func requestIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
