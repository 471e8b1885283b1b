package bitops

import "testing"

func TestGet(t *testing.T) {
	var word uint64 = 0b1010

	if got := Get(word, 0); got != 0 {
		t.Errorf("Get(0b1010, 0) = %d, want 0", got)
	}
	if got := Get(word, 1); got != 1 {
		t.Errorf("Get(0b1010, 1) = %d, want 1", got)
	}
	if got := Get(word, 63); got != 0 {
		t.Errorf("Get(0b1010, 63) = %d, want 0", got)
	}
	if got := Get(^uint64(0), 63); got != 1 {
		t.Errorf("Get(all-ones, 63) = %d, want 1", got)
	}
}

func TestSetZeroSetOne(t *testing.T) {
	word := ^uint64(0)

	SetZero(&word, 5)
	if Get(word, 5) != 0 {
		t.Error("bit 5 should be cleared")
	}
	if OnesCount(word) != 63 {
		t.Errorf("expected 63 set bits, got %d", OnesCount(word))
	}

	// Clearing twice is a no-op.
	SetZero(&word, 5)
	if OnesCount(word) != 63 {
		t.Errorf("expected 63 set bits after double clear, got %d", OnesCount(word))
	}

	SetOne(&word, 5)
	if Get(word, 5) != 1 {
		t.Error("bit 5 should be set")
	}
	if word != ^uint64(0) {
		t.Errorf("expected all-ones, got %#x", word)
	}
}

func TestTrailingZeros(t *testing.T) {
	tests := []struct {
		word uint64
		want uint32
	}{
		{1, 0},
		{0b1000, 3},
		{^uint64(0), 0},
		{1 << 63, 63},
		{0b1010_0000, 5},
	}
	for _, tt := range tests {
		if got := TrailingZeros(tt.word); got != tt.want {
			t.Errorf("TrailingZeros(%#x) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestOnesCount(t *testing.T) {
	tests := []struct {
		word uint64
		want uint32
	}{
		{0, 0},
		{1, 1},
		{^uint64(0), 64},
		{0b1011, 3},
	}
	for _, tt := range tests {
		if got := OnesCount(tt.word); got != tt.want {
			t.Errorf("OnesCount(%#x) = %d, want %d", tt.word, got, tt.want)
		}
	}
}
