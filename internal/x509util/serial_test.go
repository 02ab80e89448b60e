package x509util

import "testing"

func TestU_NewSerialNumber_Properties(t *testing.T) {
	serial, err := NewSerialNumber()
	if err != nil {
		t.Fatalf("NewSerialNumber() error = %v", err)
	}
	if serial.Sign() <= 0 {
		t.Error("serial number must be positive")
	}
	if serial.BitLen() > serialBits {
		t.Errorf("serial number is %d bits, want at most %d", serial.BitLen(), serialBits)
	}
}

func TestU_NewSerialNumber_Unique(t *testing.T) {
	first, err := NewSerialNumber()
	if err != nil {
		t.Fatalf("NewSerialNumber() error = %v", err)
	}
	second, err := NewSerialNumber()
	if err != nil {
		t.Fatalf("NewSerialNumber() error = %v", err)
	}
	if first.Cmp(second) == 0 {
		t.Error("two generated serial numbers collided")
	}
}
