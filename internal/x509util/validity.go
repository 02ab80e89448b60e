package x509util

import (
	"fmt"
	"time"

	"github.com/remiblancher/kmscert/internal/der"
)

// Validity is the certificate validity window, truncated to whole seconds
// as required by the UTCTime encoding.
type Validity struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// NewValidity derives a validity window from a start time and a whole-year
// offset. The start time is truncated to seconds and converted to UTC so
// the window round-trips exactly through its DER encoding.
func NewValidity(notBefore time.Time, years int) (Validity, error) {
	if years <= 0 {
		return Validity{}, fmt.Errorf("validity years must be positive, got %d", years)
	}
	nb := notBefore.UTC().Truncate(time.Second)
	return Validity{
		NotBefore: nb,
		NotAfter:  nb.AddDate(years, 0, 0),
	}, nil
}

// Encode returns the DER SEQUENCE of two UTCTime values.
func (v Validity) Encode() ([]byte, error) {
	if !v.NotAfter.After(v.NotBefore) {
		return nil, &der.EncodingError{Field: "validity", Reason: "notAfter must be after notBefore"}
	}
	notBefore, err := der.UTCTime("validity.notBefore", v.NotBefore)
	if err != nil {
		return nil, err
	}
	notAfter, err := der.UTCTime("validity.notAfter", v.NotAfter)
	if err != nil {
		return nil, err
	}
	return der.Sequence("validity", notBefore, notAfter)
}
