package x509util

import (
	"testing"
	"time"
)

func TestU_NewValidity_WholeYearOffset(t *testing.T) {
	notBefore := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	v, err := NewValidity(notBefore, 10)
	if err != nil {
		t.Fatalf("NewValidity() error = %v", err)
	}

	wantAfter := time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC)
	if !v.NotAfter.Equal(wantAfter) {
		t.Errorf("NotAfter = %v, want %v", v.NotAfter, wantAfter)
	}
}

func TestU_NewValidity_TruncatesSubSecond(t *testing.T) {
	notBefore := time.Date(2024, 6, 15, 12, 30, 45, 999_000_000, time.UTC)

	v, err := NewValidity(notBefore, 1)
	if err != nil {
		t.Fatalf("NewValidity() error = %v", err)
	}
	if v.NotBefore.Nanosecond() != 0 {
		t.Errorf("NotBefore keeps sub-second precision: %v", v.NotBefore)
	}
	if v.NotBefore.Second() != 45 {
		t.Errorf("truncation altered the seconds field: %v", v.NotBefore)
	}
}

func TestU_NewValidity_LeapDay(t *testing.T) {
	// Feb 29 + 1 year lands on Mar 1 per time.AddDate normalization.
	notBefore := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)

	v, err := NewValidity(notBefore, 1)
	if err != nil {
		t.Fatalf("NewValidity() error = %v", err)
	}
	wantAfter := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !v.NotAfter.Equal(wantAfter) {
		t.Errorf("NotAfter = %v, want %v", v.NotAfter, wantAfter)
	}
}

func TestU_NewValidity_RejectsNonPositiveYears(t *testing.T) {
	notBefore := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := NewValidity(notBefore, 0); err == nil {
		t.Error("years=0 should fail")
	}
	if _, err := NewValidity(notBefore, -5); err == nil {
		t.Error("years=-5 should fail")
	}
}

func TestU_Validity_Encode(t *testing.T) {
	v := Validity{
		NotBefore: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	encoded, err := v.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "\x30\x1e" +
		"\x17\x0d" + "240101000000Z" +
		"\x17\x0d" + "340101000000Z"
	if string(encoded) != want {
		t.Errorf("Encode() = %x, want %x", encoded, want)
	}
}

func TestU_Validity_Encode_RejectsPost2049(t *testing.T) {
	// UTCTime cannot represent 2050+; the window must be refused, not
	// silently re-encoded in another format.
	v, err := NewValidity(time.Date(2045, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("NewValidity() error = %v", err)
	}
	if _, err := v.Encode(); err == nil {
		t.Error("notAfter in 2055 should fail to encode")
	}
}

func TestU_Validity_Encode_RejectsInvertedWindow(t *testing.T) {
	v := Validity{
		NotBefore: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := v.Encode(); err == nil {
		t.Error("notAfter before notBefore should fail")
	}
}
