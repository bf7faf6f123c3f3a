package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MarkedSubsets enumerates every index bitmask whose selected values sum
// to target modulo 2^width, in ascending order.
func MarkedSubsets(values []int, target, width int) []int {
	mod := widthMask(width)
	want := uint64(target) & mod

	var marked []int
	for mask := 0; mask < 1<<len(values); mask++ {
		if subsetSum(values, mask)&mod == want {
			marked = append(marked, mask)
		}
	}
	return marked
}

// subsetSum wraps modulo 2^64, which agrees with every narrower modulus.
func subsetSum(values []int, mask int) uint64 {
	var sum uint64
	for i, v := range values {
		if mask&(1<<i) != 0 {
			sum += uint64(v)
		}
	}
	return sum
}

// FormatSubset renders a bitmask as the chosen indices and values,
// e.g. "{0,1} = 1+2".
func FormatSubset(values []int, mask int) string {
	var idx, terms []string
	for i, v := range values {
		if mask&(1<<i) != 0 {
			idx = append(idx, fmt.Sprint(i))
			terms = append(terms, fmt.Sprint(v))
		}
	}
	if len(terms) == 0 {
		return "{} = 0"
	}
	return fmt.Sprintf("{%s} = %s", strings.Join(idx, ","), strings.Join(terms, "+"))
}

// SuggestedIterations returns floor(π/4·sqrt(N/m)) for N = 2^n search
// states and m marked ones. It is 0 when nothing or everything is marked.
func SuggestedIterations(n, m int) int {
	total := 1 << n
	if m <= 0 || m >= total {
		return 0
	}
	return int(math.Floor(math.Pi / 4 * math.Sqrt(float64(total)/float64(m))))
}

// SuccessProbability sums dist over the marked outcomes.
func SuccessProbability(dist []float64, marked []int) float64 {
	p := 0.0
	for _, m := range marked {
		if m >= 0 && m < len(dist) {
			p += dist[m]
		}
	}
	return p
}

// MostLikely returns the outcome with the highest probability.
func MostLikely(dist []float64) int {
	if len(dist) == 0 {
		return -1
	}
	return floats.MaxIdx(dist)
}

// SweepResult is the simulated outcome of one iteration count.
type SweepResult struct {
	Iterations int
	Success    float64
	Hellinger  float64 // distance of the outcome distribution from uniform
	MostLikely int
	Depth      int
	GateCount  int
}

// RunSolver builds and simulates the solver for one iteration count and
// returns the distribution over the output register.
func RunSolver(p *Problem, iterations int) (*Circuit, []float64, error) {
	c := p.Solver(iterations)
	state, err := Simulate(c)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "simulate %d iterations", iterations)
	}
	dist, err := MeasurementDistribution(c, state)
	if err != nil {
		return nil, nil, errors.Wrap(err, "measure output register")
	}
	return c, dist, nil
}

// Sweep simulates the solver for 0..maxIterations iterations using at
// most workers goroutines. Results are indexed by iteration count.
func Sweep(ctx context.Context, p *Problem, maxIterations, workers int) ([]SweepResult, error) {
	if maxIterations < 0 {
		return nil, errors.Errorf("negative iteration bound %d", maxIterations)
	}
	marked := MarkedSubsets(p.Values, p.Target, p.Width())
	uniform := make([]float64, 1<<len(p.Values))
	for i := range uniform {
		uniform[i] = 1 / float64(len(uniform))
	}

	results := make([]SweepResult, maxIterations+1)
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for k := 0; k <= maxIterations; k++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, dist, err := RunSolver(p, k)
			if err != nil {
				return err
			}
			// Rounding can leave 1-BC slightly negative for a uniform dist.
			h := stat.Hellinger(dist, uniform)
			if math.IsNaN(h) {
				h = 0
			}
			results[k] = SweepResult{
				Iterations: k,
				Success:    SuccessProbability(dist, marked),
				Hellinger:  h,
				MostLikely: MostLikely(dist),
				Depth:      c.Depth(),
				GateCount:  len(c.Decompose().Gates),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "sweep iterations")
	}
	return results, nil
}
