package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/mayfly"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// Config holds the built-in engine's tunables.
type Config struct {
	// Seed drives every random decision; equal seeds over equal spaces
	// reproduce identical proposals.
	Seed int64

	// NInitialPoints is the number of proposals drawn from the initial
	// point generator before the surrogate takes over.
	NInitialPoints int

	// Generator selects the initial sampling sequence, one of Generators().
	Generator string

	// AcqIterations and AcqPopulation bound the inner mayfly search used to
	// minimize the acquisition function per proposal.
	AcqIterations int
	AcqPopulation int
}

func (c Config) withDefaults() Config {
	if c.NInitialPoints <= 0 {
		c.NInitialPoints = 10
	}
	if c.Generator == "" {
		c.Generator = GeneratorRandom
	}
	if c.AcqIterations <= 0 {
		c.AcqIterations = 60
	}
	if c.AcqPopulation <= 0 {
		c.AcqPopulation = 24
	}
	return c
}

// dupEpsilon is the distance (on the unit cube) under which a proposal is
// considered a re-evaluation of a known point and replaced.
const dupEpsilon = 1e-8

// Optimizer is the built-in ask/tell engine. The initial phase proposes from
// a deterministic low-discrepancy or random sequence; afterwards proposals
// minimize an inverse-distance surrogate of the observations, using the
// mayfly algorithm over the normalized unit cube. A constant-liar pass keeps
// the points of one batch apart from each other.
type Optimizer struct {
	sp      *space.Space
	cfg     Config
	sampler sampler
	cursor  int
	asks    uint64

	xi     []space.Point
	yi     []float64
	unitXi [][]float64
	best   int // index into yi, -1 until first Tell
}

var _ Engine = (*Optimizer)(nil)

// New builds a fresh engine over the given space.
func New(sp *space.Space, cfg Config) (*Optimizer, error) {
	if sp == nil || sp.Len() == 0 {
		return nil, &space.ConfigError{Op: "engine", Reason: "search space is empty"}
	}
	cfg = cfg.withDefaults()
	smp, err := newSampler(cfg.Generator, sp.Len(), cfg.NInitialPoints, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return &Optimizer{sp: sp, cfg: cfg, sampler: smp, best: -1}, nil
}

// FromSnapshot restores an engine to the exact state captured by Snapshot.
// The snapshot's dimension ordering wins over any newly supplied registry.
func FromSnapshot(snap *Snapshot) (*Optimizer, error) {
	if snap == nil {
		return nil, &space.ConfigError{Op: "engine", Reason: "nil snapshot"}
	}
	sp, err := space.New(snap.Dimensions...)
	if err != nil {
		return nil, fmt.Errorf("restore engine: %w", err)
	}
	if len(snap.Xi) != len(snap.Yi) {
		return nil, &space.ConfigError{Op: "engine", Reason: fmt.Sprintf("snapshot history mismatch: %d points, %d objectives", len(snap.Xi), len(snap.Yi))}
	}
	o, err := New(sp, Config{
		Seed:           snap.Seed,
		NInitialPoints: snap.NInitialPoints,
		Generator:      snap.Generator,
	})
	if err != nil {
		return nil, err
	}
	o.cursor = snap.GeneratorCursor
	o.asks = snap.Asks
	for i, raw := range snap.Xi {
		p := space.Point(append([]float64(nil), raw...))
		u, err := sp.ToUnit(p)
		if err != nil {
			return nil, fmt.Errorf("restore engine: history point %d: %w", i, err)
		}
		o.xi = append(o.xi, p)
		o.unitXi = append(o.unitXi, u)
	}
	o.yi = append(o.yi, snap.Yi...)
	for i, y := range o.yi {
		if o.best < 0 || y < o.yi[o.best] {
			o.best = i
		}
	}
	return o, nil
}

// Space returns the engine's search space in its own dimension order.
func (o *Optimizer) Space() *space.Space { return o.sp }

// Evaluations returns the size of the cumulative observation history.
func (o *Optimizer) Evaluations() int { return len(o.yi) }

// Ask proposes n candidate points.
func (o *Optimizer) Ask(n int) ([]space.Point, error) {
	if n <= 0 {
		return nil, &space.ConfigError{Op: "ask", Reason: fmt.Sprintf("batch width must be positive, got %d", n)}
	}
	o.asks++
	pending := make([][]float64, len(o.unitXi), len(o.unitXi)+n)
	copy(pending, o.unitXi)

	points := make([]space.Point, 0, n)
	for i := 0; i < n; i++ {
		var u []float64
		if o.cursor < o.cfg.NInitialPoints {
			got, err := o.sampler.At(o.cursor)
			if err != nil {
				return nil, fmt.Errorf("ask: %w", err)
			}
			o.cursor++
			u = got
		} else {
			u = o.propose(pending, uint64(i))
		}

		// Canonicalize through raw space so integer and categorical
		// rounding is reflected before the duplicate check.
		raw := o.sp.FromUnit(u)
		cu, err := o.sp.ToUnit(raw)
		if err != nil {
			return nil, fmt.Errorf("ask: %w", err)
		}
		if nearestDistance(cu, pending) <= dupEpsilon {
			raw, cu = o.rescue(pending, uint64(i))
			slog.Warn("Proposed point already evaluated, substituting random point", "point", raw)
		}

		pending = append(pending, cu)
		points = append(points, raw)
	}
	return points, nil
}

// propose minimizes the surrogate acquisition over the unit cube.
func (o *Optimizer) propose(pending [][]float64, i uint64) []float64 {
	dims := o.sp.Len()
	if len(o.yi) == 0 {
		rng := streamRand(o.cfg.Seed, streamAcq, o.asks<<8|i)
		u := make([]float64, dims)
		for d := range u {
			u[d] = rng.Float64()
		}
		return u
	}

	cfg := mayfly.NewDefaultConfig()
	cfg.ObjectiveFunc = o.acquisition(pending)
	cfg.ProblemSize = dims
	cfg.MaxIterations = o.cfg.AcqIterations
	cfg.NPop = o.cfg.AcqPopulation
	cfg.LowerBound = 0
	cfg.UpperBound = 1
	cfg.Rand = streamRand(o.cfg.Seed, streamAcq, o.asks<<8|i)

	result, err := mayfly.Optimize(cfg)
	if err != nil {
		slog.Warn("Acquisition search failed, falling back to random point", "error", err)
		rng := streamRand(o.cfg.Seed, streamRescue, o.asks<<8|i)
		u := make([]float64, dims)
		for d := range u {
			u[d] = rng.Float64()
		}
		return u
	}

	u := make([]float64, dims)
	for d := range u {
		x := result.GlobalBest.Position[d]
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		u[d] = x
	}
	return u
}

// acquisition builds the surrogate objective: inverse-distance-weighted mean
// of observed values minus an exploration bonus for staying away from known
// points. Pending batch points beyond the evaluated history are treated as
// observed at the current best value (constant liar).
func (o *Optimizer) acquisition(pending [][]float64) func([]float64) float64 {
	vals := make([]float64, len(pending))
	copy(vals, o.yi)
	lo, hi := o.yi[0], o.yi[0]
	for _, y := range o.yi {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	for k := len(o.yi); k < len(pending); k++ {
		vals[k] = lo
	}
	spread := hi - lo
	if spread <= 0 {
		spread = 1
	}
	kappa := 0.5 * spread

	obs := pending
	return func(x []float64) float64 {
		var num, den float64
		minD2 := math.Inf(1)
		for k, p := range obs {
			d2 := sqDist(x, p)
			if d2 < minD2 {
				minD2 = d2
			}
			w := 1 / (d2 + 1e-12)
			num += w * vals[k]
			den += w
		}
		return num/den - kappa*math.Sqrt(minD2)
	}
}

// rescue draws a random replacement that does not collide with pending.
func (o *Optimizer) rescue(pending [][]float64, i uint64) (space.Point, []float64) {
	rng := streamRand(o.cfg.Seed, streamRescue, o.asks<<8|i)
	dims := o.sp.Len()
	var raw space.Point
	var cu []float64
	for try := 0; try < 64; try++ {
		u := make([]float64, dims)
		for d := range u {
			u[d] = rng.Float64()
		}
		raw = o.sp.FromUnit(u)
		cu, _ = o.sp.ToUnit(raw)
		if nearestDistance(cu, pending) > dupEpsilon {
			return raw, cu
		}
	}
	// Tiny or saturated spaces may leave no fresh point; re-evaluation is
	// then the only option.
	return raw, cu
}

// Tell appends observed pairs to the history and returns the updated best.
func (o *Optimizer) Tell(points []space.Point, objectives []float64) (Report, error) {
	if len(points) != len(objectives) {
		return Report{}, fmt.Errorf("tell: %d points but %d objectives", len(points), len(objectives))
	}
	if len(points) == 0 {
		return Report{}, fmt.Errorf("tell: empty batch")
	}
	units := make([][]float64, len(points))
	for i, p := range points {
		if math.IsNaN(objectives[i]) || math.IsInf(objectives[i], 0) {
			return Report{}, fmt.Errorf("tell: objective %d is not finite", i)
		}
		u, err := o.sp.ToUnit(p)
		if err != nil {
			return Report{}, fmt.Errorf("tell: point %d: %w", i, err)
		}
		units[i] = u
	}
	for i, p := range points {
		o.xi = append(o.xi, append(space.Point(nil), p...))
		o.unitXi = append(o.unitXi, units[i])
		o.yi = append(o.yi, objectives[i])
		if o.best < 0 || objectives[i] < o.yi[o.best] {
			o.best = len(o.yi) - 1
		}
	}
	return o.report(), nil
}

func (o *Optimizer) report() Report {
	r := Report{Evaluations: len(o.yi)}
	if o.best >= 0 {
		r.Best = append(space.Point(nil), o.xi[o.best]...)
		r.BestValue = o.yi[o.best]
	} else {
		r.BestValue = math.Inf(1)
	}
	return r
}

// Snapshot captures the complete resumable state.
func (o *Optimizer) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		Dimensions:      o.sp.Dimensions(),
		Seed:            o.cfg.Seed,
		Asks:            o.asks,
		Generator:       o.cfg.Generator,
		GeneratorCursor: o.cursor,
		NInitialPoints:  o.cfg.NInitialPoints,
		Xi:              make([][]float64, len(o.xi)),
		Yi:              append([]float64(nil), o.yi...),
	}
	for i, p := range o.xi {
		snap.Xi[i] = append([]float64(nil), p...)
	}
	return snap, nil
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func nearestDistance(x []float64, points [][]float64) float64 {
	min := math.Inf(1)
	for _, p := range points {
		if d := math.Sqrt(sqDist(x, p)); d < min {
			min = d
		}
	}
	return min
}
