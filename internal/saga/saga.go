// Package saga tracks committed steps of a multi-resource operation so they
// can be undone in reverse order when a later step fails.
//
// This is deliberately an at-least-once compensating saga, not a transaction
// log: compensation is synchronous and best-effort. A compensation that
// itself fails comes back as an Anomaly for the caller to log and hand to
// manual reconciliation; nothing retries it.
package saga

import "context"

// CompensationFunc undoes one committed step.
type CompensationFunc func(ctx context.Context) error

// Anomaly is a compensation that failed, leaving the system inconsistent.
type Anomaly struct {
	Step string
	Err  error
}

type step struct {
	name       string
	compensate CompensationFunc
}

// Log is the ordered stack of committed steps. Zero value is ready to use.
// Not safe for concurrent use; a saga runs on one request.
type Log struct {
	steps []step
}

// Push records a committed step and how to undo it.
func (l *Log) Push(name string, fn CompensationFunc) {
	l.steps = append(l.steps, step{name: name, compensate: fn})
}

// Discard drops the named step without running it, for effects that stop
// being safely undoable (a debit whose confirm has already been issued).
func (l *Log) Discard(name string) {
	for i := len(l.steps) - 1; i >= 0; i-- {
		if l.steps[i].name == name {
			l.steps = append(l.steps[:i], l.steps[i+1:]...)
			return
		}
	}
}

// Len reports how many committed steps would be compensated.
func (l *Log) Len() int {
	return len(l.steps)
}

// Unwind runs every recorded compensation in reverse order and returns the
// ones that failed. All compensations are attempted even if earlier ones
// fail; the steps are independent resources and skipping the rest would only
// widen the inconsistency.
func (l *Log) Unwind(ctx context.Context) []Anomaly {
	var anomalies []Anomaly

	for i := len(l.steps) - 1; i >= 0; i-- {
		s := l.steps[i]

		err := s.compensate(ctx)
		if err != nil {
			anomalies = append(anomalies, Anomaly{Step: s.name, Err: err})
		}
	}

	l.steps = nil

	return anomalies
}
