package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/remiblancher/kmscert/internal/api/dto"
	"github.com/remiblancher/kmscert/internal/custody"
	"github.com/remiblancher/kmscert/internal/der"
	"github.com/remiblancher/kmscert/internal/issue"
	"github.com/remiblancher/kmscert/internal/x509util"
)

// CertHandler handles certificate issuance endpoints.
type CertHandler struct {
	issuer *issue.Issuer
}

// NewCertHandler creates a new CertHandler.
func NewCertHandler(issuer *issue.Issuer) *CertHandler {
	return &CertHandler{issuer: issuer}
}

// Issue handles POST /api/v1/certificates.
func (h *CertHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &dto.APIError{
			Code:    "invalid_request",
			Message: fmt.Sprintf("failed to decode request body: %v", err),
		})
		return
	}

	result, err := h.issuer.Issue(r.Context(), issue.Request{
		KeyID: req.KeyID,
		Subject: x509util.DistinguishedName{
			Country:      req.Subject.Country,
			Province:     req.Subject.Province,
			Locality:     req.Subject.Locality,
			Organization: req.Subject.Organization,
			CommonName:   req.Subject.CommonName,
		},
		Email:         req.Email,
		ValidityYears: req.ValidityYears,
	})
	if err != nil {
		status, apiErr := mapIssueError(err)
		respondError(w, status, apiErr)
		return
	}

	resp := dto.IssueCertificateResponse{
		CertificatePEM: string(result.PEM),
		Serial:         fmt.Sprintf("0x%X", result.SerialNumber.Bytes()),
		Subject:        result.Subject.String(),
		NotBefore:      result.Validity.NotBefore.Format("2006-01-02T15:04:05Z"),
		NotAfter:       result.Validity.NotAfter.Format("2006-01-02T15:04:05Z"),
	}

	respondJSON(w, http.StatusCreated, resp)
}

// mapIssueError translates an issuance failure into an HTTP status and
// error body. Custody sentinels map to transport-level statuses; encoding
// and key-material failures are the caller's fault.
func mapIssueError(err error) (int, *dto.APIError) {
	var encErr *der.EncodingError
	var keyErr *x509util.KeyMaterialError

	switch {
	case errors.Is(err, custody.ErrKeyNotFound):
		return http.StatusNotFound, &dto.APIError{Code: "key_not_found", Message: err.Error()}
	case errors.Is(err, custody.ErrAccessDenied):
		return http.StatusForbidden, &dto.APIError{Code: "access_denied", Message: err.Error()}
	case errors.Is(err, custody.ErrSignerUnavailable):
		return http.StatusBadGateway, &dto.APIError{Code: "signer_unavailable", Message: err.Error()}
	case errors.Is(err, custody.ErrSignerRejected):
		return http.StatusUnprocessableEntity, &dto.APIError{Code: "signer_rejected", Message: err.Error()}
	case errors.As(err, &encErr):
		return http.StatusBadRequest, &dto.APIError{Code: "encoding_error", Message: err.Error()}
	case errors.As(err, &keyErr):
		return http.StatusBadRequest, &dto.APIError{Code: "key_material_error", Message: err.Error()}
	}

	var issueErr *issue.IssueError
	if errors.As(err, &issueErr) && issueErr.Stage == "validate" {
		return http.StatusBadRequest, &dto.APIError{Code: "invalid_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, &dto.APIError{Code: "internal_error", Message: err.Error()}
}
