package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestNewModelIDOrdering checks that later model IDs sort after earlier ones
func TestNewModelIDOrdering(t *testing.T) {
	first := NewModelID()
	second := NewModelID()
	if second.String() <= first.String() {
		t.Errorf("Expected %s to sort after %s", second, first)
	}
}

// TestParseModelID tests model ID parsing
func TestParseModelID(t *testing.T) {
	valid := NewModelID().String()
	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"  " + valid + "  ", false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		result, err := ParseModelID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseModelID(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseModelID(%q) unexpected error: %v", tt.input, err)
		}
		if result.String() != valid {
			t.Errorf("ParseModelID(%q) = %q, want %q", tt.input, result, valid)
		}
	}
}

func TestComputeListHash_OrderSensitive(t *testing.T) {
	a := ComputeListHash([]string{"Age", "Gender"})
	b := ComputeListHash([]string{"Gender", "Age"})
	c := ComputeListHash([]string{"Age", "Gender"})

	if a.Equals(b) {
		t.Error("Expected different hashes for different orderings")
	}
	if !a.Equals(c) {
		t.Error("Expected identical hashes for identical lists")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12-char short hash, got %q", a.Short())
	}
}

func TestEncodingError_Unwraps(t *testing.T) {
	err := &EncodingError{Row: -1, Field: "Gender", Value: "Other", Reason: "unknown level"}
	if !errors.Is(err, ErrEncoding) {
		t.Error("Expected EncodingError to unwrap to ErrEncoding")
	}
	if !IsEncodingError(err) {
		t.Error("Expected IsEncodingError to be true")
	}

	conv := &ConvergenceError{Iterations: 3, Reason: "singular"}
	if !IsConvergenceError(conv) {
		t.Error("Expected ConvergenceError to unwrap to ErrConvergence")
	}
}
