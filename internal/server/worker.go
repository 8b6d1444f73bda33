package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/source"
	"github.com/cwbudde/motionbench/internal/store"
)

// runJob executes a benchmark job in the background. When runStore is not
// nil and the request asks for it, the run record and its per-pair trace
// are persisted.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string, eventInterval time.Duration) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	events := newThrottledBroadcaster(jm.broadcaster, eventInterval)
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	events.Force(progressEvent(jm, jobID))

	slog.Info("Starting job", "job_id", jobID, "source", job.Request.Source, "strategies", job.Request.Strategies)

	frames, err := source.Open(ctx, job.Request.Source, source.Options{MaxFrames: job.Request.MaxFrames})
	if err != nil {
		return finishWithError(ctx, jm, events, jobID, fmt.Errorf("failed to load frames: %w", err))
	}

	driver, err := bench.NewDriver(job.Config)
	if err != nil {
		return finishWithError(ctx, jm, events, jobID, err)
	}

	var run *store.Run
	var trace *store.TraceWriter
	if runStore != nil && job.Request.Save {
		run = store.NewRun(job.Request.Source, job.Config, job.Request.Strategies)
		run.Frames = len(frames)
		run.Width, run.Height = frames[0].Width, frames[0].Height
		if trace, err = runStore.CreateTrace(run.ID); err != nil {
			slog.Warn("Failed to create trace, continuing without it", "job_id", jobID, "error", err)
			trace = nil
		}
	}
	defer func() {
		if trace != nil {
			trace.Close()
		}
	}()

	driver.Observe(func(ps bench.PairStats) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Progress.Strategy = ps.Strategy
			j.Progress.Pair = ps.Pair + 1
			j.Progress.Pairs = ps.Pairs
			j.Progress.PSNR = ps.PSNR
			j.predicted = &predictedFrame{
				Strategy:  ps.Strategy,
				Pair:      ps.Pair,
				Predicted: ps.Predicted,
				Current:   frames[ps.Pair+1],
			}
		})
		if trace != nil {
			if err := trace.Write(store.EntryFromStats(ps)); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
		events.Offer(progressEvent(jm, jobID))
	})

	for _, name := range job.Request.Strategies {
		strategy, err := bench.NewStrategy(name, job.Config)
		if err != nil {
			return finishWithError(ctx, jm, events, jobID, err)
		}

		res, err := driver.Run(ctx, frames, strategy)
		if err != nil {
			return finishWithError(ctx, jm, events, jobID, fmt.Errorf("strategy %s: %w", strategy.Name(), err))
		}

		jm.UpdateJob(jobID, func(j *Job) {
			j.Results = append(j.Results, res)
			j.Progress.Done++
		})
		events.Force(progressEvent(jm, jobID))
	}

	// The trace must be on disk before the job is reported complete.
	if trace != nil {
		if err := trace.Close(); err != nil {
			slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
		}
		trace = nil
	}

	var runID string
	if run != nil {
		final, _ := jm.GetJob(jobID)
		run.Results = final.Results
		if err := runStore.SaveRun(run); err != nil {
			slog.Error("Failed to save run", "job_id", jobID, "error", err)
		} else {
			runID = run.ID
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.RunID = runID
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed", "job_id", jobID, "elapsed", endTime.Sub(job.StartTime), "run_id", runID)
	events.Force(progressEvent(jm, jobID))
	return nil
}

// progressEvent snapshots the job's current state as an event.
func progressEvent(jm *JobManager, jobID string) ProgressEvent {
	job, _ := jm.GetJob(jobID)
	event := ProgressEvent{JobID: jobID, Timestamp: time.Now()}
	if job != nil {
		event.State = job.State
		event.Progress = job.Progress
	}
	return event
}

// finishWithError marks the job cancelled when ctx was cancelled, failed otherwise.
func finishWithError(ctx context.Context, jm *JobManager, events *throttledBroadcaster, jobID string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		markJobCancelled(jm, jobID)
	} else {
		markJobFailed(jm, jobID, err)
	}
	events.Force(progressEvent(jm, jobID))
	return err
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
