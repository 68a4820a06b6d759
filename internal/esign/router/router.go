package router

import (
	"log/slog"
	"net/http"

	"github.com/quillsign/quillsign/internal/esign/handlers"
	"github.com/quillsign/quillsign/internal/middleware"
)

// Router holds all route handlers
type Router struct {
	mux             *http.ServeMux
	jwtSecret       string
	logger          *slog.Logger
	documentHandler *handlers.DocumentHandler
	signerHandler   *handlers.SignerHandler
	fieldHandler    *handlers.FieldHandler
	auditHandler    *handlers.AuditHandler
	healthHandler   *handlers.HealthHandler
}

// NewRouter creates a new Router
func NewRouter(
	jwtSecret string,
	logger *slog.Logger,
	documentHandler *handlers.DocumentHandler,
	signerHandler *handlers.SignerHandler,
	fieldHandler *handlers.FieldHandler,
	auditHandler *handlers.AuditHandler,
	healthHandler *handlers.HealthHandler,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		jwtSecret:       jwtSecret,
		logger:          logger,
		documentHandler: documentHandler,
		signerHandler:   signerHandler,
		fieldHandler:    fieldHandler,
		auditHandler:    auditHandler,
		healthHandler:   healthHandler,
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {
	// Health endpoints (no auth required)
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)

	// Document endpoints
	r.mux.HandleFunc("GET /api/v1/documents", r.documentHandler.List)
	r.mux.HandleFunc("POST /api/v1/documents", r.documentHandler.Create)
	r.mux.HandleFunc("GET /api/v1/documents/{id}", r.documentHandler.Get)
	r.mux.HandleFunc("DELETE /api/v1/documents/{id}", r.documentHandler.Delete)
	r.mux.HandleFunc("PUT /api/v1/documents/{id}/file", r.documentHandler.AttachFile)
	r.mux.HandleFunc("POST /api/v1/documents/{id}/upload", r.documentHandler.Upload)
	r.mux.HandleFunc("POST /api/v1/documents/{id}/send", r.documentHandler.Send)
	r.mux.HandleFunc("GET /api/v1/documents/{id}/progress", r.documentHandler.Progress)
	r.mux.HandleFunc("GET /api/v1/documents/{id}/audit", r.auditHandler.ListForDocument)

	// Signer endpoints
	r.mux.HandleFunc("POST /api/v1/documents/{id}/signers", r.signerHandler.Add)
	r.mux.HandleFunc("DELETE /api/v1/documents/{id}/signers/{signerId}", r.signerHandler.Remove)
	r.mux.HandleFunc("POST /api/v1/documents/{id}/signers/{signerId}/view", r.signerHandler.View)
	r.mux.HandleFunc("POST /api/v1/documents/{id}/signers/{signerId}/complete", r.signerHandler.Complete)
	r.mux.HandleFunc("POST /api/v1/documents/{id}/signers/{signerId}/decline", r.signerHandler.Decline)
	r.mux.HandleFunc("GET /api/v1/documents/{id}/signers/{signerId}/validate", r.fieldHandler.Validate)

	// Field endpoints
	r.mux.HandleFunc("POST /api/v1/documents/{id}/fields", r.fieldHandler.Add)
	r.mux.HandleFunc("PUT /api/v1/documents/{id}/fields/{fieldId}/value", r.fieldHandler.SetValue)

	// Apply middleware stack
	var handler http.Handler = r.mux

	// Auth middleware (skip for health endpoints and OPTIONS)
	handler = r.authMiddleware(handler)

	// CORS - applied after auth so it can set headers for preflight before auth rejects
	handler = middleware.CORSMiddleware(middleware.DefaultCORSConfig())(handler)

	// Logging
	handler = middleware.LoggingMiddleware(r.logger)(handler)

	// Recovery
	handler = middleware.RecoveryMiddleware(r.logger)(handler)

	return handler
}

// authMiddleware wraps the auth middleware but skips health endpoints and OPTIONS requests
func (r *Router) authMiddleware(next http.Handler) http.Handler {
	authHandler := middleware.AuthMiddleware(r.jwtSecret)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Skip auth for health endpoints
		if req.URL.Path == "/health" || req.URL.Path == "/ready" {
			next.ServeHTTP(w, req)
			return
		}

		// Skip auth for CORS preflight requests
		if req.Method == http.MethodOptions {
			next.ServeHTTP(w, req)
			return
		}

		authHandler.ServeHTTP(w, req)
	})
}
