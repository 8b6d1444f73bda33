package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/motionbench/internal/bench"
)

// Run is a persisted benchmark run: the input, the configuration every
// strategy ran with, and one result per strategy in execution order.
type Run struct {
	// ID is a UUID assigned by NewRun
	ID string `json:"id"`

	// Source is the path or synthetic descriptor the frames came from
	Source string `json:"source"`

	Frames int `json:"frames"`
	Width  int `json:"width"`
	Height int `json:"height"`

	Config     bench.Config            `json:"config"`
	Strategies []string                `json:"strategies"`
	Results    []bench.AlgorithmResult `json:"results"`

	CreatedAt time.Time `json:"createdAt"`
}

// RunInfo is the listing view of a Run.
type RunInfo struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Frames     int       `json:"frames"`
	Strategies []string  `json:"strategies"`
	BestPSNR   string    `json:"bestPsnr"` // strategy with the highest average PSNR
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRun creates an empty run record with a fresh ID.
func NewRun(source string, cfg bench.Config, strategies []string) *Run {
	return &Run{
		ID:         uuid.New().String(),
		Source:     source,
		Config:     cfg,
		Strategies: strategies,
		CreatedAt:  time.Now(),
	}
}

// ToInfo converts a Run to its listing metadata.
func (r *Run) ToInfo() RunInfo {
	info := RunInfo{
		ID:         r.ID,
		Source:     r.Source,
		Frames:     r.Frames,
		Strategies: r.Strategies,
		CreatedAt:  r.CreatedAt,
	}
	best := -1.0
	for _, res := range r.Results {
		if res.AvgPSNR > best {
			best = res.AvgPSNR
			info.BestPSNR = res.Strategy
		}
	}
	return info
}

// Validate checks that the run record is complete.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Source == "" {
		return &ValidationError{Field: "Source", Reason: "cannot be empty"}
	}
	if r.Frames < 0 {
		return &ValidationError{Field: "Frames", Reason: "cannot be negative"}
	}
	if len(r.Strategies) == 0 {
		return &ValidationError{Field: "Strategies", Reason: "cannot be empty"}
	}
	if len(r.Results) != len(r.Strategies) {
		return &ValidationError{
			Field:  "Results",
			Reason: fmt.Sprintf("length mismatch: %d results for %d strategies", len(r.Results), len(r.Strategies)),
		}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	if err := r.Config.Validate(); err != nil {
		return &ValidationError{Field: "Config", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
