package bench

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/motionbench/internal/imgproc"
	"github.com/cwbudde/motionbench/internal/me"
)

// ErrUnknownStrategy is returned for strategy names the registry does not know.
var ErrUnknownStrategy = errors.New("no such strategy")

// Canonical strategy names.
const (
	StrategyExhaustive        = "exhaustive"
	StrategyStep              = "step"
	StrategyDiamond           = "diamond"
	StrategyHierarchical      = "hierarchical"
	StrategyHierarchicalFixed = "hierarchical-fixed"
)

// DefaultStrategies is the comparison run when none are named.
var DefaultStrategies = []string{StrategyHierarchical, StrategyStep, StrategyDiamond}

var aliases = map[string]string{
	"fs":                    StrategyExhaustive,
	"full":                  StrategyExhaustive,
	"tss":                   StrategyStep,
	"three-step":            StrategyStep,
	"ds":                    StrategyDiamond,
	"hierarchical_adaptive": StrategyHierarchical,
}

// StrategyNames lists the canonical names in display order.
func StrategyNames() []string {
	return []string{
		StrategyExhaustive,
		StrategyStep,
		StrategyDiamond,
		StrategyHierarchical,
		StrategyHierarchicalFixed,
	}
}

// CanonicalName resolves aliases such as "TSS" or "Hierarchical_Adaptive".
func CanonicalName(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[key]; ok {
		return canon, nil
	}
	for _, n := range StrategyNames() {
		if key == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownStrategy, name, strings.Join(StrategyNames(), ", "))
}

// NewStrategy builds a fresh strategy instance for name.
func NewStrategy(name string, cfg Config) (me.Strategy, error) {
	canon, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}

	switch canon {
	case StrategyExhaustive:
		return me.Exhaustive{}, nil
	case StrategyStep:
		return me.Step{}, nil
	case StrategyDiamond:
		return me.Diamond{}, nil
	}

	builder, err := imgproc.NewPyramidBuilder(cfg.PyramidKernel)
	if err != nil {
		return nil, err
	}
	var ranges me.RangeSelector = cfg.TextureRanges
	if canon == StrategyHierarchicalFixed {
		ranges = me.FixedRange(cfg.SearchRange)
	}
	return me.NewHierarchical(builder, imgproc.SobelTexture{}, ranges), nil
}
