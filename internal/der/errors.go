package der

import "fmt"

// EncodingError reports an input value that cannot be represented in DER.
// The caller input must change; the error is not retryable.
type EncodingError struct {
	Field  string // name of the offending field, e.g. "subject.CommonName"
	Reason string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("der: cannot encode %s: %s", e.Field, e.Reason)
}

// errf builds an EncodingError for a field.
func errf(field, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
