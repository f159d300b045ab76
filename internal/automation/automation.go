// Package automation plays scripted shows: an ordered list of effects, each
// streamed for a fixed time, optionally looped or shuffled.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/monitoring"
	"github.com/san-kum/treelights/internal/sink"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted show.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Loop        bool           `yaml:"loop"`
	Shuffle     bool           `yaml:"shuffle"`
	Seed        int64          `yaml:"seed"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one effect in a show. Preset, when set, chooses the
// effect and its settings; Effect then only overrides the preset's effect.
type ScenarioStep struct {
	Effect   string        `yaml:"effect"`
	Preset   string        `yaml:"preset"`
	Duration time.Duration `yaml:"duration"`
}

func (s ScenarioStep) String() string {
	switch {
	case s.Preset != "" && s.Effect != "":
		return s.Preset + "/" + s.Effect
	case s.Preset != "":
		return s.Preset
	}
	return s.Effect
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, step := range s.Steps {
		if step.Effect == "" && step.Preset == "" {
			return fmt.Errorf("%w: step %d needs an effect or a preset", ErrInvalidScenario, i+1)
		}
		if step.Duration <= 0 {
			return fmt.Errorf("%w: step %d duration must be positive", ErrInvalidScenario, i+1)
		}
	}
	return nil
}

// Order returns the step indices for one pass, shuffled when requested.
func (s *Scenario) Order(rng *rand.Rand) []int {
	idx := make([]int, len(s.Steps))
	for i := range idx {
		idx[i] = i
	}
	if s.Shuffle && rng != nil {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}
	return idx
}

// BuildFunc constructs the effect for a step.
type BuildFunc func(step ScenarioStep) (*effect.Effect, error)

// StepResult records how one step went.
type StepResult struct {
	Step  ScenarioStep
	Stats sink.Stats
}

// sessionless hides the session of the shared sink from per-step drivers so
// the handshake happens once per show.
type sessionless struct{ s sink.Sink }

func (n sessionless) Send(p []color.RGB) error { return n.s.Send(p) }
func (n sessionless) Close() error             { return nil }

// RunScenario streams each step to out in turn until the scenario ends or
// ctx is done. A step that fails to build is skipped with a warning. out is
// not closed. The results cover only the most recent pass, so a looping
// show holds at most one entry per step.
func RunScenario(ctx context.Context, scenario *Scenario, build BuildFunc, out sink.Sink) ([]StepResult, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	if sess, ok := out.(sink.Session); ok {
		if err := sess.Begin(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if err := sess.End(context.Background()); err != nil {
				monitoring.Warnf("ending sink session: %v", err)
			}
		}()
	}

	seed := scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	driver := sink.NewDriver(sessionless{out})

	var last []StepResult
	for pass := 1; ; pass++ {
		results := make([]StepResult, 0, len(scenario.Steps))
		built := 0
		for _, i := range scenario.Order(rng) {
			if ctx.Err() != nil {
				if len(results) == 0 {
					return last, nil
				}
				return results, nil
			}
			step := scenario.Steps[i]
			fx, err := build(step)
			if err != nil {
				monitoring.Warnf("skipping step %d (%s): %v", i+1, step, err)
				continue
			}
			built++
			monitoring.Infof("pass %d step %d/%d: %s for %v", pass, i+1, len(scenario.Steps), step, step.Duration)
			stats, err := driver.Run(ctx, fx, step.Duration)
			results = append(results, StepResult{Step: step, Stats: stats})
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if built == 0 {
			return results, fmt.Errorf("%w: no step could be built", ErrInvalidScenario)
		}
		if !scenario.Loop {
			return results, nil
		}
		last = results
	}
}
