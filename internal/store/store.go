package store

// Store persists benchmark runs.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically writes the run record, replacing any previous
	// record with the same ID.
	SaveRun(run *Run) error

	// LoadRun returns the run with the given ID, or ErrNotFound.
	LoadRun(runID string) (*Run, error)

	// ListRuns returns metadata for all stored runs, newest first.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the run record and its trace.
	// Returns ErrNotFound if the run does not exist.
	DeleteRun(runID string) error

	// CreateTrace starts a new per-pair trace for the run, replacing any
	// existing one.
	CreateTrace(runID string) (*TraceWriter, error)

	// OpenTrace opens the run's trace for reading, or returns ErrNotFound.
	OpenTrace(runID string) (*TraceReader, error)
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
