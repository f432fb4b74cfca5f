package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDivision(t *testing.T) {
	tests := []struct {
		in   string
		want Division
		ok   bool
	}{
		{"Southern", DivisionSouthern, true},
		{"southern", DivisionSouthern, true},
		{" SOUTH ", DivisionSouthern, true},
		{"midwest", DivisionMidwestern, true},
		{"Eastern", DivisionEastern, true},
		{"north", DivisionNorthern, true},
		{"all", DivisionAll, true},
		{"", "", false},
		{"Western", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDivision(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDivision_IsAll(t *testing.T) {
	assert.True(t, DivisionAll.IsAll())
	assert.True(t, Division("").IsAll())
	assert.False(t, DivisionEastern.IsAll())
}
