package service

import "testing"

func TestOutputsMatch(t *testing.T) {
	tests := []struct {
		actual, expected string
		want             bool
	}{
		{"42\n", "42", true},
		{"42 \n", "42", true},
		{"42", "42\r\n\t ", true},
		{"4 2", "42", false},
		{" 42", "42", false},
		{"1\n2\n", "1\n2", true},
		{"1\n\n2", "1\n2", false},
		{"", "", true},
		{"\n", "", true},
	}
	for _, tt := range tests {
		if got := outputsMatch(tt.actual, tt.expected); got != tt.want {
			t.Errorf("outputsMatch(%q, %q) = %v, want %v", tt.actual, tt.expected, got, tt.want)
		}
	}
}
