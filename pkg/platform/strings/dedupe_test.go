package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"contracts"},
			expected: []string{"contracts"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  contracts  ", "invoices  ", "  payroll"},
			expected: []string{"contracts", "invoices", "payroll"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"doc-1", "doc-2", "doc-1", "doc-3", "doc-2"},
			expected: []string{"doc-1", "doc-2", "doc-3"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"doc-1", "", "  ", "doc-2"},
			expected: []string{"doc-1", "doc-2"},
		},
		{
			name:     "combined: trim, dedupe, remove empty",
			input:    []string{"  contracts ", "invoices", "contracts", "", "  ", "invoices"},
			expected: []string{"contracts", "invoices"},
		},
		{
			name:     "category names stay case sensitive",
			input:    []string{"Contracts", "contracts", "CONTRACTS"},
			expected: []string{"Contracts", "contracts", "CONTRACTS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
