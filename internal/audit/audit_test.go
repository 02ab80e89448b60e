package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// Event Tests
// =============================================================================

func TestU_NewEvent_Creation(t *testing.T) {
	event := NewEvent(EventCertIssued, ResultSuccess)

	if event.EventType != EventCertIssued {
		t.Errorf("expected EventType=%s, got %s", EventCertIssued, event.EventType)
	}
	if event.Result != ResultSuccess {
		t.Errorf("expected Result=%s, got %s", ResultSuccess, event.Result)
	}
	if event.Timestamp == "" {
		t.Error("Timestamp should not be empty")
	}
	if event.Actor.Type != "user" {
		t.Errorf("expected Actor.Type=user, got %s", event.Actor.Type)
	}
}

func TestU_Event_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   *Event
		wantErr bool
	}{
		{
			name:    "[Unit] Validate: valid event",
			event:   NewEvent(EventKeyAccessed, ResultSuccess),
			wantErr: false,
		},
		{
			name: "[Unit] Validate: missing event_type",
			event: &Event{
				Timestamp: "2026-01-15T10:00:00Z",
				Actor:     Actor{Type: "user", ID: "admin"},
				Result:    ResultSuccess,
			},
			wantErr: true,
		},
		{
			name: "[Unit] Validate: missing result",
			event: &Event{
				EventType: EventSignFailed,
				Timestamp: "2026-01-15T10:00:00Z",
				Actor:     Actor{Type: "user", ID: "admin"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestU_Event_CanonicalJSON_ExcludesHash(t *testing.T) {
	event := NewEvent(EventCertIssued, ResultSuccess)
	event.Hash = "sha256:should-not-appear"

	canonical, err := event.CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON() error = %v", err)
	}
	if strings.Contains(string(canonical), "should-not-appear") {
		t.Error("canonical JSON must not include the event's own hash")
	}
}

// =============================================================================
// FileWriter Tests
// =============================================================================

func TestU_FileWriter_HashChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	defer w.Close()

	if w.LastHash() != GenesisHash {
		t.Errorf("initial LastHash() = %s, want genesis", w.LastHash())
	}

	first := NewEvent(EventKeyAccessed, ResultSuccess).
		WithObject(Object{Type: "key", KeyID: "test-key"})
	if err := w.Write(first); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if first.HashPrev != GenesisHash {
		t.Errorf("first event HashPrev = %s, want genesis", first.HashPrev)
	}

	second := NewEvent(EventCertIssued, ResultSuccess).
		WithObject(Object{Type: "certificate", KeyID: "test-key", Serial: "0x2A"})
	if err := w.Write(second); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if second.HashPrev != first.Hash {
		t.Errorf("second event HashPrev = %s, want %s", second.HashPrev, first.Hash)
	}
	if w.LastHash() != second.Hash {
		t.Errorf("LastHash() = %s, want %s", w.LastHash(), second.Hash)
	}
}

func TestU_FileWriter_ChainVerifiable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(NewEvent(EventKeyAccessed, ResultSuccess)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Replay the file and recompute every hash.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	prev := GenesisHash
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("failed to parse event line: %v", err)
		}
		if event.HashPrev != prev {
			t.Errorf("chain break: HashPrev = %s, want %s", event.HashPrev, prev)
		}

		canonical, err := event.CanonicalJSON()
		if err != nil {
			t.Fatalf("CanonicalJSON() error = %v", err)
		}
		h := sha256.New()
		h.Write(canonical)
		h.Write([]byte(prev))
		want := HashPrefix + hex.EncodeToString(h.Sum(nil))
		if event.Hash != want {
			t.Errorf("hash mismatch: got %s, want %s", event.Hash, want)
		}
		prev = event.Hash
	}
}

func TestU_FileWriter_ResumesExistingChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	event := NewEvent(EventCertIssued, ResultSuccess)
	if err := w.Write(event); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: the chain must continue from the last written hash.
	w2, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() reopen error = %v", err)
	}
	defer w2.Close()

	if w2.LastHash() != event.Hash {
		t.Errorf("reopened LastHash() = %s, want %s", w2.LastHash(), event.Hash)
	}
}

func TestU_FileWriter_RejectsInvalidEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	defer w.Close()

	if err := w.Write(&Event{}); err == nil {
		t.Error("writing an empty event should fail")
	}
}

// =============================================================================
// Global Logger Tests
// =============================================================================

func TestU_GlobalLog_Helpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := InitFile(path); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	defer Close()

	if err := LogKeyAccessed("test-key", "software", true, ""); err != nil {
		t.Errorf("LogKeyAccessed() error = %v", err)
	}
	if err := LogCertIssued("test-key", "0x2A", "C=GB, CN=Test", true); err != nil {
		t.Errorf("LogCertIssued() error = %v", err)
	}
	if err := LogSignFailed("test-key", "signer unavailable"); err != nil {
		t.Errorf("LogSignFailed() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 events, got %d", len(lines))
	}
	if !strings.Contains(lines[0], string(EventKeyAccessed)) {
		t.Errorf("first event is not KEY_ACCESSED: %s", lines[0])
	}
	if !strings.Contains(lines[1], string(EventCertIssued)) {
		t.Errorf("second event is not CERT_ISSUED: %s", lines[1])
	}
	if !strings.Contains(lines[2], string(EventSignFailed)) {
		t.Errorf("third event is not SIGN_FAILED: %s", lines[2])
	}
}

func TestU_GlobalLog_DisabledByDefault(t *testing.T) {
	Init(nil)
	if err := LogKeyAccessed("k", "software", true, ""); err != nil {
		t.Errorf("disabled audit logging should never fail, got %v", err)
	}
}
