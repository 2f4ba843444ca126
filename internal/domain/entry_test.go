package domain

import "testing"

func TestValidateURL(t *testing.T) {
	tests := []struct {
		candidate string
		expected  bool
	}{
		{"https://example.com", true},
		{"http://localhost:8080/path?q=1", true},
		{"ftp://x", true},
		{"https://docs.example.com/erp#section", true},
		{"not a url", false},
		{"", false},
		{"example.com", false},
		{"https://", false},
		{"/relative/path", false},
		{"mailto:someone@example.com", false},
		{"http://exa mple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			if got := ValidateURL(tt.candidate); got != tt.expected {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.candidate, got, tt.expected)
			}
		})
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID() returned empty id")
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate id %s", id)
		}
		seen[id] = true
	}
}
