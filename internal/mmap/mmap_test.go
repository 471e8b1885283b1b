package mmap

import "testing"

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	if err != nil {
		t.Fatalf("MapAnon failed: %v", err)
	}
	defer m.Close()

	if m.Size() != 4096 {
		t.Errorf("expected size 4096, got %d", m.Size())
	}

	data := m.Bytes()
	if len(data) != 4096 {
		t.Fatalf("expected 4096 bytes, got %d", len(data))
	}

	// Anonymous mappings are zero-filled.
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte at index %d not zero: %d", i, b)
		}
	}

	// Memory must be writable.
	data[0] = 0xAA
	data[4095] = 0x55
	if data[0] != 0xAA || data[4095] != 0x55 {
		t.Error("mapping not writable")
	}
}

func TestMapAnon_InvalidSize(t *testing.T) {
	if _, err := MapAnon(0); err != ErrInvalidSize {
		t.Errorf("expected ErrInvalidSize for size 0, got %v", err)
	}
	if _, err := MapAnon(-1); err != ErrInvalidSize {
		t.Errorf("expected ErrInvalidSize for negative size, got %v", err)
	}
}

func TestMapping_CloseIdempotent(t *testing.T) {
	m, err := MapAnon(1024)
	if err != nil {
		t.Fatalf("MapAnon failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if m.Bytes() != nil {
		t.Error("Bytes() should return nil after Close")
	}
}
