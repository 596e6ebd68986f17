package helpers

import (
	"reflect"
	"testing"
)

func TestSplitAddressList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "alice@example.com", []string{"alice@example.com"}},
		{"multiple", "alice@example.com, Bob <bob@example.com>", []string{"alice@example.com", "Bob <bob@example.com>"}},
		{"trailing separator", "alice@example.com, ", []string{"alice@example.com"}},
		{"display name with comma keeps spacing rule", "\"Doe, Jane\" <jane@example.com>", []string{"\"Doe", "Jane\" <jane@example.com>"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitAddressList(tc.input)
			if got == nil {
				t.Fatal("result must never be nil")
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("SplitAddressList(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSplitLabels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "Inbox", []string{"Inbox"}},
		{"trimmed", " Inbox , Important ", []string{"Inbox", "Important"}},
		{"empty entries dropped", "Inbox,,Archived,", []string{"Inbox", "Archived"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitLabels(tc.input)
			if got == nil {
				t.Fatal("result must never be nil")
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("SplitLabels(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}
