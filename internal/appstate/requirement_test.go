package appstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequirementMargin(t *testing.T) {
	tests := []struct {
		name string
		req  Requirement
		want float64
	}{
		{"centered", Requirement{Actual: 5, MinVal: 0, MaxVal: 10}, 50},
		{"at lower bound", Requirement{Actual: 0, MinVal: 0, MaxVal: 10}, 0},
		{"at upper bound", Requirement{Actual: 10, MinVal: 0, MaxVal: 10}, 0},
		{"near lower bound", Requirement{Actual: 1, MinVal: 0, MaxVal: 10}, 10},
		{"near upper bound", Requirement{Actual: 9, MinVal: 0, MaxVal: 10}, 10},
		{"outside the band", Requirement{Actual: 12, MinVal: 0, MaxVal: 10}, 20},
		{"zero span clamps", Requirement{Actual: 3.3, MinVal: 3.3, MaxVal: 3.3}, 0},
		{"negative bounds", Requirement{Actual: -4, MinVal: -10, MaxVal: 0}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, tt.req.Margin(), 1e-9)
		})
	}
}
