package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/sim"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs one preset, or the inline config when present. The
// inline config is decoded over the defaults. Zero overrides keep the
// preset's value.
type ScenarioStep struct {
	Preset   string    `yaml:"preset"`
	Config   yaml.Node `yaml:"config"`
	Seed     int64     `yaml:"seed"`
	Steps    int       `yaml:"steps"`
	Entities int       `yaml:"entities"`
	SaveAs   string    `yaml:"save_as"`
}

// Resolver looks up a preset by name.
type Resolver func(name string) (*config.Config, error)

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", scenario.Name)
	}
	for i, step := range scenario.Steps {
		if step.Preset == "" && step.Config.Kind == 0 {
			return nil, fmt.Errorf("scenario step %d: needs a preset or a config", i+1)
		}
	}
	return &scenario, nil
}

// Build resolves the step's configuration and applies its overrides.
func (s ScenarioStep) Build(resolve Resolver) (*config.Config, error) {
	var cfg *config.Config
	if s.Config.Kind != 0 {
		data, err := yaml.Marshal(&s.Config)
		if err != nil {
			return nil, err
		}
		if cfg, err = config.Parse(data); err != nil {
			return nil, err
		}
		if cfg.Name == "" {
			cfg.Name = "inline"
		}
	} else {
		base, err := resolve(s.Preset)
		if err != nil {
			return nil, err
		}
		cfg = base.Clone()
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Steps != 0 {
		cfg.Steps = s.Steps
	}
	if s.Entities != 0 {
		cfg.Entities.Amount = s.Entities
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, cfg.Validate()
}

// RunScenario executes every step in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, resolve Resolver, logger *slog.Logger) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Build(resolve)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "config", cfg.Name)

		exp := experiment.New(cfg, experiment.WithLogger(logger))
		result, err := exp.Run(ctx)
		exp.Close()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// MonteCarloConfig runs the same configuration under many seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      uint64
}

// MonteCarloResult is one trial's outcome. Dropped is the largest number of
// entities left outside the world on any single step. A trial is stable when
// it did not crash and never dropped an entity.
type MonteCarloResult struct {
	TrialID int
	Seed    int64
	Steps   int
	Dropped int
	Crashed bool
	Stable  bool
	Metrics map[string]float64
}

// RunMonteCarlo executes NumTrials runs of Base with state validation on,
// drawing each trial's seed from cfg.Seed.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", cfg.NumTrials)
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		trialCfg.Seed = rng.Int64()
		trialCfg.ValidateState = true

		watch := &dropWatch{}
		exp := experiment.New(trialCfg,
			experiment.WithLogger(logger),
			experiment.WithSimOptions(sim.WithObserver(watch)),
		)
		result, err := exp.Run(ctx)
		exp.Close()

		crashed := errors.Is(err, sim.ErrCrashed)
		if err != nil && !crashed {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Seed:    trialCfg.Seed,
			Steps:   result.StepsTaken,
			Dropped: watch.worst,
			Crashed: crashed,
			Stable:  !crashed && watch.worst == 0,
			Metrics: result.Metrics,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", "done", trial+1, "trials", cfg.NumTrials)
		}
	}

	return results, nil
}

// dropWatch keeps the worst per-step drop count seen during a run.
type dropWatch struct {
	worst int
}

func (w *dropWatch) OnStep(f sim.Frame) {
	w.worst = max(w.worst, f.Dropped)
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
