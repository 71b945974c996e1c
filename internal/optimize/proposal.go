package optimize

import (
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// Proposal is one round's candidate batch, tagged by origin: sampled from
// the engine or overridden verbatim by the operator through the control
// channel. The tag travels with the points so the round never has to consult
// mutable flags to know where its batch came from.
type Proposal struct {
	Points     []space.Point
	Overridden bool

	// Kwargs are the operator-supplied extra evaluation parameters; only
	// overridden proposals carry them.
	Kwargs map[string]any
}

// Sampled wraps points proposed by the engine.
func Sampled(points []space.Point) Proposal {
	return Proposal{Points: points}
}

// Overridden wraps an operator-supplied batch together with its extra
// evaluation parameters.
func Overridden(points []space.Point, kwargs map[string]any) Proposal {
	return Proposal{Points: points, Overridden: true, Kwargs: kwargs}
}
