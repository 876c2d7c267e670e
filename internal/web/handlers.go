package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/JonMunkholm/registrar/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const healthCheckTimeout = 5 * time.Second

// handleRoot confirms the API is up without touching the database.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "AI Registration Assistant API is running"})
}

// handleHealth pings the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleRegistrationStatus returns the current state of the registration
// limiter, for monitoring and for clients deciding whether to retry.
func (s *Server) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleGetCompany returns a company with its applicants and files.
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := companyID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	detail, err := s.service.GetCompany(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleDeleteCompany removes a company and everything it owns.
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := companyID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteCompany(WithRequestMetadata(r.Context(), r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func companyID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, core.ValidationError("parse company id", "Invalid company ID")
	}
	return id, nil
}
