package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandOf_Boundaries(t *testing.T) {
	tests := []struct {
		h    float64
		want Band
	}{
		{100, Healthy},
		{80, Healthy},
		{79.999, Watch},
		{60, Watch},
		{59.999, AtRisk},
		{0, AtRisk},
		{-5, AtRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandOf(tt.h), "health %g", tt.h)
	}
}

func TestBandColorsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range []Band{Healthy, Watch, AtRisk} {
		assert.False(t, seen[b.Color()])
		seen[b.Color()] = true
		assert.NotEmpty(t, b.Label())
	}
}

func TestLegend(t *testing.T) {
	legend := Legend()
	require.Len(t, legend, 3)
	assert.Equal(t, Healthy, legend[0].Band)
	assert.Equal(t, "≥ 80", legend[0].Range)
	assert.Equal(t, "60 – 80", legend[1].Range)
	assert.Equal(t, "< 60", legend[2].Range)
	assert.Equal(t, AtRisk.Color(), legend[2].Color)
}

// evalStep evaluates a step expression the way the map engine does.
func evalStep(expr []any, v float64) string {
	out := expr[2].(string)
	for i := 3; i+1 < len(expr); i += 2 {
		if v >= expr[i].(float64) {
			out = expr[i+1].(string)
		}
	}
	return out
}

func TestStepExpression_MatchesBandOf(t *testing.T) {
	expr := StepExpression("health")
	assert.Equal(t, []any{"get", "health"}, expr[1])
	for _, h := range []float64{0, 30, 59.999, 60, 70, 79.999, 80, 95, 100} {
		assert.Equal(t, BandOf(h).Color(), evalStep(expr, h), "health %g", h)
	}
}
