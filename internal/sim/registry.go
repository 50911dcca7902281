package sim

import (
	"fmt"
	"sort"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/mutators"
)

// Constructor builds one mutator from its configuration entry. Params are
// decoded on top of the kind's defaults.
type Constructor func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error)

type Registry struct {
	ctors map[mutators.Kind]Constructor
}

func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[mutators.Kind]Constructor)}

	r.ctors[mutators.KindGravity] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultGravityOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewGravity(opts)
	}
	r.ctors[mutators.KindFixedBodyAttractor] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultFixedBodyOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewFixedBody(opts, env)
	}
	r.ctors[mutators.KindEdgeWrap] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultEdgeWrapOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewEdgeWrap(opts, env), nil
	}
	r.ctors[mutators.KindVelocityAlpha] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultVelocityAlphaOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewVelocityAlpha(opts)
	}
	r.ctors[mutators.KindNoiseDrift] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultNoiseDriftOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewNoiseDrift(opts, env)
	}
	r.ctors[mutators.KindPointerPusher] = func(mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
		opts, err := decode(mc, mutators.DefaultPointerPusherOptions())
		if err != nil {
			return nil, err
		}
		return mutators.NewPointerPusher(opts)
	}

	return r
}

func decode[T any](mc config.MutatorConfig, defaults T) (T, error) {
	opts := defaults
	if err := mc.DecodeParams(&opts); err != nil {
		return defaults, fmt.Errorf("params: %w", err)
	}
	return opts, nil
}

// Register adds or replaces the constructor for kind.
func (r *Registry) Register(kind mutators.Kind, ctor Constructor) {
	r.ctors[kind] = ctor
}

// Build constructs the i-th configured mutator. Every failure is a
// *config.ConfigError.
func (r *Registry) Build(i int, mc config.MutatorConfig, env mutators.Env) (mutators.Mutator, error) {
	fn, ok := r.ctors[mutators.Kind(mc.Kind)]
	if !ok {
		return nil, &config.ConfigError{
			Field:  fmt.Sprintf("mutators[%d].kind", i),
			Reason: fmt.Sprintf("unknown mutator kind: %s", mc.Kind),
		}
	}
	m, err := fn(mc, env)
	if err != nil {
		return nil, config.WrapMutatorError(i, mc.Kind, err)
	}
	return m, nil
}

func (r *Registry) ListKinds() []string {
	names := make([]string, 0, len(r.ctors))
	for kind := range r.ctors {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}
