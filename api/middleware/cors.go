package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
)

// CORS returns middleware that applies the configured allowed origin policy.
// The frontend is a single known origin, so only one is ever configured.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origin := strings.TrimSpace(cfg.AllowedOrigin)
	if origin == "" {
		origin = "http://localhost:3000"
	}

	return cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
