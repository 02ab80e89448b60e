package audit

// Writer defines the interface for audit log writers.
//
// Implementations MUST:
//   - Return an error if the write fails (audit fails = operation fails)
//   - Perform fsync/flush before returning from Write
//   - Calculate and set the hash chain (HashPrev, Hash)
//   - Never write sensitive data (PINs, credentials)
type Writer interface {
	// Write logs an audit event.
	Write(event *Event) error

	// Close flushes any pending writes and closes the writer.
	Close() error

	// LastHash returns the hash of the last written event.
	// Returns "sha256:genesis" if no events have been written.
	LastHash() string
}

// NopWriter is a no-op writer that discards all events.
// Used when audit logging is disabled.
type NopWriter struct{}

var _ Writer = (*NopWriter)(nil)

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }
func (NopWriter) LastHash() string   { return GenesisHash }
