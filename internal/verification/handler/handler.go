// Package handler exposes the public, unauthenticated verification endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coursecert/internal/platform/middleware"
	"coursecert/internal/verification/models"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
	"coursecert/pkg/platform/httputil"
)

// Service defines the verification operations the handler needs.
type Service interface {
	VerifyByCertificationID(ctx context.Context, certID id.CertificationID) (*models.Result, error)
	VerifyByTokenID(ctx context.Context, tokenID int64) (*models.Result, error)
}

// Handler handles the public verification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a verification Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public verification routes. These are deliberately
// unauthenticated: anyone holding a certificate link can check it.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificates/verify/{certificationID}", h.handleVerify)
	r.Get("/certificates/verify/token/{tokenID}", h.handleVerifyByToken)
}

// handleVerify answers 200 for every completed verification, valid or not.
// Only infrastructure failures produce error statuses.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := id.ParseCertificationID(chi.URLParam(r, "certificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.VerifyByCertificationID(ctx, certID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", middleware.GetRequestID(ctx),
			"certification_id", certID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerifyByToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := strconv.ParseInt(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil || tokenID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token ID must be a positive integer"))
		return
	}

	result, err := h.service.VerifyByTokenID(ctx, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", middleware.GetRequestID(ctx),
			"token_id", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
