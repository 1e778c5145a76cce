package appstate

import "github.com/atopile/dashsync/internal/foundation"

// Requirement is a simulation-derived pass/fail check against numeric bounds.
type Requirement struct {
	ID      string                     `json:"id"`
	Name    string                     `json:"name"`
	Passed  bool                       `json:"passed"`
	Actual  float64                    `json:"actual"`
	MinVal  float64                    `json:"minVal"`
	MaxVal  float64                    `json:"maxVal"`
	Typical foundation.Option[float64] `json:"typical"`
	Unit    foundation.Option[string]  `json:"unit"`
	Capture CaptureKind                `json:"capture"`
}

// Margin returns how far the actual value sits from the nearest bound, as a
// percentage of the bound span. It is derived on read, never stored, and
// clamps to 0 when the span is zero.
func (r Requirement) Margin() float64 {
	span := r.MaxVal - r.MinVal
	if span == 0 {
		return 0
	}
	lo := r.Actual - r.MinVal
	if lo < 0 {
		lo = -lo
	}
	hi := r.Actual - r.MaxVal
	if hi < 0 {
		hi = -hi
	}
	nearest := lo
	if hi < nearest {
		nearest = hi
	}
	return nearest / span * 100
}
