package cli

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/optimize"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// Built-in benchmark objectives. They stand in for the caller-supplied
// simulation routine so the loop can be exercised end to end from the CLI;
// each evaluates its batch rows concurrently, as a real simulation runner
// would.
func benchmarkEval(name string) (optimize.EvalFunc, error) {
	var f func(space.Point) float64
	switch name {
	case "sphere":
		f = sphere
	case "rosenbrock":
		f = rosenbrock
	case "rastrigin":
		f = rastrigin
	default:
		return nil, fmt.Errorf("unknown objective %q (want sphere, rosenbrock, or rastrigin)", name)
	}

	return func(ctx context.Context, table *space.Table, kwargs map[string]any) ([]float64, error) {
		out := make([]float64, table.Len())
		var wg sync.WaitGroup
		for i := 0; i < table.Len(); i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = f(table.Row(i))
			}(i)
		}
		wg.Wait()
		return out, ctx.Err()
	}, nil
}

func sphere(p space.Point) float64 {
	var s float64
	for _, x := range p {
		s += x * x
	}
	return s
}

func rosenbrock(p space.Point) float64 {
	var s float64
	for i := 0; i+1 < len(p); i++ {
		a := p[i+1] - p[i]*p[i]
		b := 1 - p[i]
		s += 100*a*a + b*b
	}
	return s
}

func rastrigin(p space.Point) float64 {
	s := 10 * float64(len(p))
	for _, x := range p {
		s += x*x - 10*math.Cos(2*math.Pi*x)
	}
	return s
}
