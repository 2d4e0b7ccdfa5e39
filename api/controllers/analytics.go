package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/internal/analytics"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
)

// SurveyResults returns the aggregated per-question breakdown for a survey.
func SurveyResults(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		surveyID, err := uuid.Parse(chi.URLParam(r, "surveyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid survey id"))
			return
		}

		results, err := svc.SurveyResults(r.Context(), surveyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// Dashboard returns the org-wide engagement summary for the HR landing page.
func Dashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
