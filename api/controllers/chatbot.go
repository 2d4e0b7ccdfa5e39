package controllers

import (
	"net/http"
	"strings"

	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/api/validators"
	"github.com/iscore-hr/helpdesk-backend/internal/chatbot"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
)

// ChatbotAsk proxies an employee question to the FAQ service.
func ChatbotAsk(client *chatbot.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chatbot client unavailable"))
			return
		}

		var body chatbot.AskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		answer, err := client.Ask(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, answer)
	}
}

// ChatbotCommonQuestions returns the dropdown questions for a language.
func ChatbotCommonQuestions(client *chatbot.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chatbot client unavailable"))
			return
		}

		language := strings.TrimSpace(r.URL.Query().Get("language"))
		questions, err := client.CommonQuestions(r.Context(), language)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"questions": questions})
	}
}

// ChatbotFeedback forwards an answer rating to the FAQ service.
func ChatbotFeedback(client *chatbot.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chatbot client unavailable"))
			return
		}

		var body chatbot.FeedbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accepted := client.SubmitFeedback(r.Context(), body)
		responses.WriteSuccess(w, map[string]bool{"accepted": accepted})
	}
}

// ChatbotHealth reports whether the FAQ service is reachable.
func ChatbotHealth(client *chatbot.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy := client != nil && client.Health(r.Context())
		status := "healthy"
		if !healthy {
			status = "unreachable"
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}
