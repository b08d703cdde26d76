// Package handler exposes the admin-facing certification endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursecert/internal/certification/models"
	"coursecert/internal/eligibility"
	"coursecert/internal/platform/middleware"
	id "coursecert/pkg/domain"
	"coursecert/pkg/platform/httputil"
)

// Service defines the certification operations the handler needs.
type Service interface {
	Issue(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*models.Record, error)
	Revoke(ctx context.Context, certID id.CertificationID, reason string) (*models.Record, error)
	Get(ctx context.Context, certID id.CertificationID) (*models.Record, error)
	ListByLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Record, error)
	ListByCourse(ctx context.Context, courseID id.CourseID) ([]*models.Record, error)
	Eligibility(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*eligibility.Result, error)
}

// Handler handles certification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a certification Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the certification routes. The router passed in is expected
// to already enforce issuer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.handleIssue)
	r.Get("/certificates/{certificationID}", h.handleGet)
	r.Post("/certificates/{certificationID}/revoke", h.handleRevoke)
	r.Get("/students/{studentID}/certificates", h.handleListByStudent)
	r.Get("/courses/{courseID}/certificates", h.handleListByCourse)
	r.Get("/students/{studentID}/courses/{courseID}/eligibility", h.handleEligibility)
}

// handleIssue runs the issuance pipeline. A fully mined issuance returns 201;
// an issuance still waiting on the ledger returns 202 with the pending record.
func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[models.IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	learnerID, _ := id.ParseLearnerID(req.StudentID)
	courseID, _ := id.ParseCourseID(req.CourseID)

	record, err := h.service.Issue(ctx, learnerID, courseID)
	if err != nil {
		h.logger.WarnContext(ctx, "issuance request failed",
			"request_id", requestID,
			"student_id", req.StudentID,
			"course_id", req.CourseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if record.State == models.StatePending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, record)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	certID, err := id.ParseCertificationID(chi.URLParam(r, "certificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndValidate[models.RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Revoke(ctx, certID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "revocation request failed",
			"request_id", requestID,
			"certification_id", certID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertificationID(chi.URLParam(r, "certificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Get(r.Context(), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleListByStudent(w http.ResponseWriter, r *http.Request) {
	learnerID, err := id.ParseLearnerID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListByLearner(r.Context(), learnerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Certificates: emptyIfNil(records)})
}

func (h *Handler) handleListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := id.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListByCourse(r.Context(), courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Certificates: emptyIfNil(records)})
}

// handleEligibility previews the evaluation without issuing anything.
func (h *Handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	learnerID, err := id.ParseLearnerID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := id.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Eligibility(r.Context(), learnerID, courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEligibilityResponse(result))
}

type listResponse struct {
	Certificates []*models.Record `json:"certificates"`
}

func emptyIfNil(records []*models.Record) []*models.Record {
	if records == nil {
		return []*models.Record{}
	}
	return records
}

type eligibilityResponse struct {
	Eligible        bool     `json:"eligible"`
	Reason          string   `json:"reason,omitempty"`
	RequiredCount   int      `json:"requiredCount"`
	ApprovedCount   int      `json:"approvedCount"`
	MissingProjects []string `json:"missingProjects"`
}

func toEligibilityResponse(result *eligibility.Result) eligibilityResponse {
	missing := make([]string, 0, len(result.MissingArtifacts))
	for _, a := range result.MissingArtifacts {
		missing = append(missing, a.Title)
	}
	return eligibilityResponse{
		Eligible:        result.Eligible,
		Reason:          result.Reason,
		RequiredCount:   len(result.RequiredArtifacts),
		ApprovedCount:   len(result.ApprovedSubmissions),
		MissingProjects: missing,
	}
}
