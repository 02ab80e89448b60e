// Package dto defines the request and response types of the REST API.
package dto

// SubjectDTO carries the distinguished name fields of an issue request.
type SubjectDTO struct {
	Country      string `json:"country"`
	Province     string `json:"province,omitempty"`
	Locality     string `json:"locality,omitempty"`
	Organization string `json:"organization,omitempty"`
	CommonName   string `json:"common_name"`
}

// IssueCertificateRequest is the body of POST /api/v1/certificates.
type IssueCertificateRequest struct {
	KeyID         string     `json:"key_id"`
	Subject       SubjectDTO `json:"subject"`
	Email         string     `json:"email,omitempty"`
	ValidityYears int        `json:"validity_years"`
}

// IssueCertificateResponse is the successful issuance response.
type IssueCertificateResponse struct {
	CertificatePEM string `json:"certificate_pem"`
	Serial         string `json:"serial"`
	Subject        string `json:"subject"`
	NotBefore      string `json:"not_before"`
	NotAfter       string `json:"not_after"`
}

// APIError is the error response body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the GET /ready response.
type ReadyResponse struct {
	Ready  bool            `json:"ready"`
	Checks map[string]bool `json:"checks"`
}
