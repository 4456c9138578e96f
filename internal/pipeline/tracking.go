package pipeline

import (
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/store"
	"log"
	"sync"
	"time"
)

// Tracker records stage timings and warnings for one run and mirrors them to
// the run store when one is attached.
type Tracker struct {
	RunID string
	Store *store.Store

	mu       sync.RWMutex
	stages   []model.StageMetrics
	warnings []model.Warning
}

// NewTracker creates a tracker. st may be nil.
func NewTracker(runID string, st *store.Store) *Tracker {
	return &Tracker{RunID: runID, Store: st}
}

// SetStatus updates the run status in the store.
func (t *Tracker) SetStatus(status string) {
	if t.Store == nil {
		return
	}
	if err := t.Store.UpdateRunStatus(t.RunID, status); err != nil {
		log.Printf("⚠️ Failed to update status of run %s: %v", t.RunID, err)
	}
}

// Log prints a line and persists it as a run log.
func (t *Tracker) Log(stage, level, message string, details map[string]interface{}) {
	log.Printf("[%s] %s: %s", t.RunID, stage, message)
	if t.Store == nil {
		return
	}
	if err := t.Store.SaveLog(t.RunID, stage, level, message, details); err != nil {
		log.Printf("⚠️ Failed to save log for run %s: %v", t.RunID, err)
	}
}

// StartStage marks the start of a pipeline stage
func (t *Tracker) StartStage(stage string, rowsIn int) {
	t.mu.Lock()
	t.stages = append(t.stages, model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
		RowsIn:    rowsIn,
		Status:    "running",
	})
	t.mu.Unlock()

	fmt.Printf("📊 Stage '%s' started with %d rows\n", stage, rowsIn)
	t.SetStatus(stage)
	t.Log(stage, "info", "stage started", map[string]interface{}{"rows_in": rowsIn})
}

// EndStage marks the end of a pipeline stage
func (t *Tracker) EndStage(stage string, rowsOut int) {
	d := t.finish(stage, "completed", rowsOut)
	fmt.Printf("📊 Stage '%s' completed: %d rows out in %v\n", stage, rowsOut, d)
	t.Log(stage, "info", "stage completed", map[string]interface{}{
		"rows_out":    rowsOut,
		"duration_ms": d.Milliseconds(),
	})
}

// SkipStage records a stage that did not run because its input is not configured.
func (t *Tracker) SkipStage(stage, reason string) {
	now := time.Now()
	t.mu.Lock()
	t.stages = append(t.stages, model.StageMetrics{
		StageName: stage,
		StartTime: now,
		EndTime:   now,
		Status:    "skipped",
	})
	t.mu.Unlock()

	fmt.Printf("⏭️ Stage '%s' skipped: %s\n", stage, reason)
	t.Log(stage, "info", "stage skipped: "+reason, nil)
}

// FailStage marks a running stage failed.
func (t *Tracker) FailStage(stage string, err error) {
	t.finish(stage, "failed", 0)
	fmt.Printf("❌ Stage '%s' failed: %v\n", stage, err)
	t.Log(stage, "error", err.Error(), nil)
}

func (t *Tracker) finish(stage, status string, rowsOut int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for i := len(t.stages) - 1; i >= 0; i-- {
		s := &t.stages[i]
		if s.StageName == stage && s.Status == "running" {
			s.EndTime = now
			s.Duration = now.Sub(s.StartTime)
			s.RowsOut = rowsOut
			s.Status = status
			return s.Duration
		}
	}
	return 0
}

// Warn records a non-fatal data condition.
func (t *Tracker) Warn(w model.Warning) {
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}
	t.mu.Lock()
	t.warnings = append(t.warnings, w)
	t.mu.Unlock()

	fmt.Printf("⚠️ [%s] %s %s: %s\n", w.Stage, w.Kind, w.Subject, w.Message)
	if t.Store == nil {
		return
	}
	if err := t.Store.SaveWarning(t.RunID, w); err != nil {
		log.Printf("⚠️ Failed to save warning for run %s: %v", t.RunID, err)
	}
}

// WarnDegenerate warns about every result whose r² could not be computed.
func (t *Tracker) WarnDegenerate(stage, what string, results []model.CorrelationResult) {
	for _, r := range Degenerate(results) {
		t.Warn(model.Warning{
			Kind:    model.DegenerateGroupWarning,
			Stage:   stage,
			Subject: what + "=" + r.Group,
			Message: fmt.Sprintf("r² undefined (%s, %d rows); excluded from ranking", r.Status, r.N),
			Rows:    r.N,
		})
	}
}

// WarnJoin warns when an inner join dropped rows or ignored duplicate keys on either side.
func (t *Tracker) WarnJoin(stage, what string, stats JoinStats) {
	if stats.Dropped() == 0 && stats.LeftDuplicates == 0 && stats.RightDuplicates == 0 {
		return
	}
	t.Warn(model.Warning{
		Kind:    model.JoinMismatchWarning,
		Stage:   stage,
		Subject: what,
		Message: fmt.Sprintf("%d left and %d right rows had no counterpart, %d left and %d right duplicate keys ignored",
			stats.LeftUnmatched, stats.RightUnmatched, stats.LeftDuplicates, stats.RightDuplicates),
		Rows: stats.Dropped() + stats.LeftDuplicates + stats.RightDuplicates,
	})
}

// Stages returns a copy of the stage metrics so far.
func (t *Tracker) Stages() []model.StageMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.StageMetrics, len(t.stages))
	copy(out, t.stages)
	return out
}

// Warnings returns a copy of the warnings so far.
func (t *Tracker) Warnings() []model.Warning {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Warning, len(t.warnings))
	copy(out, t.warnings)
	return out
}
