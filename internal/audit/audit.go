package audit

import (
	"fmt"
	"sync"
)

var (
	// globalWriter is the default audit writer.
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex
)

// Init initializes the global audit logger with the given writer.
// A nil writer disables audit logging.
func Init(w Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		return
	}
	globalWriter = w
}

// InitFile initializes the global audit logger with a file writer.
// An empty path disables audit logging.
func InitFile(path string) error {
	if path == "" {
		Init(nil)
		return nil
	}

	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}

	Init(w)
	return nil
}

// Close closes the global audit writer.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	return err
}

// Log writes an audit event to the global writer.
//
// IMPORTANT: If audit logging is enabled and this returns an error,
// the calling operation SHOULD fail. Audit logs are critical for
// compliance and security.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	if err := w.Write(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogKeyAccessed logs a public key export from the custody service.
func LogKeyAccessed(keyID, backend string, success bool, reason string) error {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}

	event := NewEvent(EventKeyAccessed, result).
		WithObject(Object{
			Type:  "key",
			KeyID: keyID,
		}).
		WithContext(Context{
			Backend: backend,
			Reason:  reason,
		})

	return Log(event)
}

// LogCertIssued logs a certificate issuance event.
func LogCertIssued(keyID, serial, subject string, success bool) error {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}

	event := NewEvent(EventCertIssued, result).
		WithObject(Object{
			Type:    "certificate",
			KeyID:   keyID,
			Serial:  serial,
			Subject: subject,
		}).
		WithContext(Context{
			Algorithm: "SHA256-RSA",
		})

	return Log(event)
}

// LogSignFailed logs a failed remote signing call.
func LogSignFailed(keyID, reason string) error {
	event := NewEvent(EventSignFailed, ResultFailure).
		WithObject(Object{
			Type:  "key",
			KeyID: keyID,
		}).
		WithContext(Context{
			Reason: reason,
		})

	return Log(event)
}
