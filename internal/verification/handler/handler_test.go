package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecert/internal/verification/models"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// fakeService returns a canned result for every verification call.
type fakeService struct {
	result *models.Result
	err    error
}

func (f *fakeService) VerifyByCertificationID(_ context.Context, _ id.CertificationID) (*models.Result, error) {
	return f.result, f.err
}

func (f *fakeService) VerifyByTokenID(_ context.Context, _ int64) (*models.Result, error) {
	return f.result, f.err
}

func newRouter(service Service) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	r := chi.NewRouter()
	New(service, logger).Register(r)
	return r
}

func TestVerifyReturnsResultBody(t *testing.T) {
	certID := id.NewCertificationID()
	router := newRouter(&fakeService{result: &models.Result{
		Valid:       true,
		Certificate: &models.Certificate{CertificationID: certID.String(), BlockchainVerified: true},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificates/verify/"+certID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, certID.String(), result.Certificate.CertificationID)
}

func TestVerifyInvalidCertificateStillAnswers200(t *testing.T) {
	router := newRouter(&fakeService{result: &models.Result{Valid: false, Reason: models.ReasonNotFound}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificates/verify/"+id.NewCertificationID().String(), nil))

	require.Equal(t, http.StatusOK, rec.Code, "an invalid certificate is a completed verification, not an error")
	var result models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonNotFound, result.Reason)
}

func TestVerifyMalformedIDIsBadRequest(t *testing.T) {
	router := newRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificates/verify/not-a-cert-id", nil))

	// Malformed IDs are a client input error; they never reach the service.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(dErrors.CodeInvalidInput), body["error"])
}

func TestVerifyByTokenRejectsNonNumericToken(t *testing.T) {
	router := newRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificates/verify/token/zero", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyInfrastructureFailureIsErrorStatus(t *testing.T) {
	router := newRouter(&fakeService{err: dErrors.New(dErrors.CodeLedgerTransient, "node unreachable")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/certificates/verify/"+id.NewCertificationID().String(), nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
