package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

// Setter applies one parameter value to a configuration.
type Setter func(cfg *config.Config, v float64)

// Params are the configuration fields a sweep can vary.
var Params = map[string]Setter{
	"amount": func(cfg *config.Config, v float64) { cfg.Entities.Amount = int(v) },
	"drag":   func(cfg *config.Config, v float64) { cfg.Entities.Drag = config.Drag{v, v} },
	"alpha":  func(cfg *config.Config, v float64) { cfg.Entities.Alpha = v },
	"seed":   func(cfg *config.Config, v float64) { cfg.Seed = int64(v) },
	"steps":  func(cfg *config.Config, v float64) { cfg.Steps = int(v) },
}

func ListParams() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d params but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Params[name]; !ok {
			return nil, fmt.Errorf("unknown sweep param: %s", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize makes Search prefer the largest metric value.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Search runs one experiment per grid point on a copy of base and returns
// the best trial along with every trial in grid order. Points whose run
// fails are skipped; cancellation stops the search.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	metricName string,
	opts ...experiment.Option,
) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(point map[string]float64) error {
		cfg := base.Clone()
		for name, v := range point {
			Params[name](cfg, v)
		}

		exp := experiment.New(cfg, opts...)
		defer exp.Close()

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %s not recorded", metricName)
		}
		t := Trial{Params: point, Value: val}
		trials = append(trials, t)
		if (g.maximize && val > best.Value) || (!g.maximize && val < best.Value) {
			best = t
		}
		return nil
	})
	if err != nil {
		return best, trials, err
	}
	if best.Params == nil {
		return best, trials, fmt.Errorf("grid search: no grid point completed")
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
