package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/remiblancher/kmscert/internal/api/dto"
	"github.com/remiblancher/kmscert/internal/custody"
	"github.com/remiblancher/kmscert/internal/issue"
)

func testIssuer(t *testing.T) *issue.Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	svc := custody.NewSoftwareService()
	svc.AddKey("test-key", key)
	return issue.NewIssuer(svc)
}

func postCertificates(t *testing.T, h *CertHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates", &buf)
	rec := httptest.NewRecorder()
	h.Issue(rec, req)
	return rec
}

func validRequest() dto.IssueCertificateRequest {
	return dto.IssueCertificateRequest{
		KeyID: "test-key",
		Subject: dto.SubjectDTO{
			Country:      "GB",
			Organization: "ACME Certificates Inc.",
			CommonName:   "Robot Certificate 1",
		},
		ValidityYears: 10,
	}
}

func TestU_CertHandler_Issue_Success(t *testing.T) {
	h := NewCertHandler(testIssuer(t))

	rec := postCertificates(t, h, validRequest())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	var resp dto.IssueCertificateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	block, _ := pem.Decode([]byte(resp.CertificatePEM))
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("response does not contain a CERTIFICATE PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("returned certificate does not parse: %v", err)
	}
	if cert.Subject.CommonName != "Robot Certificate 1" {
		t.Errorf("CommonName = %q", cert.Subject.CommonName)
	}
	if resp.Serial == "" || resp.NotBefore == "" || resp.NotAfter == "" {
		t.Error("serial and validity fields must be populated")
	}
}

func TestU_CertHandler_Issue_BadJSON(t *testing.T) {
	h := NewCertHandler(testIssuer(t))

	rec := postCertificates(t, h, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestU_CertHandler_Issue_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*dto.IssueCertificateRequest)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "[Unit] Issue: unknown key",
			mutate:     func(r *dto.IssueCertificateRequest) { r.KeyID = "ghost" },
			wantStatus: http.StatusNotFound,
			wantCode:   "key_not_found",
		},
		{
			name:       "[Unit] Issue: invalid common name character",
			mutate:     func(r *dto.IssueCertificateRequest) { r.Subject.CommonName = "Robot#1" },
			wantStatus: http.StatusBadRequest,
			wantCode:   "encoding_error",
		},
		{
			name:       "[Unit] Issue: bad country length",
			mutate:     func(r *dto.IssueCertificateRequest) { r.Subject.Country = "GBR" },
			wantStatus: http.StatusBadRequest,
			wantCode:   "encoding_error",
		},
		{
			name:       "[Unit] Issue: zero validity",
			mutate:     func(r *dto.IssueCertificateRequest) { r.ValidityYears = 0 },
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCertHandler(testIssuer(t))
			req := validRequest()
			tt.mutate(&req)

			rec := postCertificates(t, h, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body)
			}

			var apiErr dto.APIError
			if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// failingService simulates custody backend failures.
type failingService struct {
	pubErr  error
	signErr error
	inner   custody.Service
}

func (f *failingService) PublicKey(ctx context.Context, keyID string) ([]byte, error) {
	if f.pubErr != nil {
		return nil, f.pubErr
	}
	return f.inner.PublicKey(ctx, keyID)
}

func (f *failingService) SignDigest(ctx context.Context, keyID string, digest []byte) ([]byte, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return f.inner.SignDigest(ctx, keyID, digest)
}

func TestU_CertHandler_Issue_CustodyFailures(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	software := custody.NewSoftwareService()
	software.AddKey("test-key", key)

	tests := []struct {
		name       string
		svc        *failingService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "[Unit] Issue: access denied",
			svc:        &failingService{inner: software, pubErr: fmt.Errorf("%w: test-key", custody.ErrAccessDenied)},
			wantStatus: http.StatusForbidden,
			wantCode:   "access_denied",
		},
		{
			name:       "[Unit] Issue: signer unavailable",
			svc:        &failingService{inner: software, signErr: fmt.Errorf("%w: timeout", custody.ErrSignerUnavailable)},
			wantStatus: http.StatusBadGateway,
			wantCode:   "signer_unavailable",
		},
		{
			name:       "[Unit] Issue: signer rejected",
			svc:        &failingService{inner: software, signErr: fmt.Errorf("%w: key disabled", custody.ErrSignerRejected)},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "signer_rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCertHandler(issue.NewIssuer(tt.svc))

			rec := postCertificates(t, h, validRequest())
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body)
			}

			var apiErr dto.APIError
			if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestU_HealthHandler_Endpoints(t *testing.T) {
	h := NewHealthHandler("test")

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
	var health dto.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health.Status != "ok" || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready status = %d, want 200", rec.Code)
	}
}
