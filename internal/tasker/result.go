package tasker

import (
	"encoding/gob"
	"time"
)

func init() {
	// Result.Value, Args and Kwargs are `any`-typed to carry whatever a
	// task returns or is called with, so every concrete type they might
	// hold has to be registered with gob ahead of time. Task kwargs come
	// from arbitrary client JSON bodies, so beyond the JSON scalar types
	// this also has to cover encoding/json's two composite decode shapes
	// (map[string]any and []any) to avoid failing deep inside save() the
	// first time a client sends a nested object or array argument.
	gob.Register("")
	gob.Register(0)
	gob.Register(false)
	gob.Register(float64(0))
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// State is one of a task run's lifecycle stages.
type State string

const (
	StateNew      State = "new"
	StateProgress State = "progress"
	StateError    State = "error"
	StateDone     State = "done"
)

// Result is a stored record of one task run, gob-encoded through
// connector.Encode/Decode for persistence. Exported fields so gob can
// see them.
type Result struct {
	TaskID  string
	Name    string
	State   State
	Created time.Time
	Updated time.Time
	Value   any
	IsError bool
	Args    []any
	Kwargs  map[string]any
}

// NewResult creates a freshly queued result.
func NewResult(taskID, name string, args []any, kwargs map[string]any) *Result {
	now := time.Now()
	return &Result{
		TaskID:  taskID,
		Name:    name,
		State:   StateNew,
		Created: now,
		Updated: now,
		Args:    args,
		Kwargs:  kwargs,
	}
}

// Started transitions the result to progress.
func (r *Result) Started() {
	r.Updated = time.Now()
	r.State = StateProgress
}

// Closed stores a successful result.
func (r *Result) Closed(value any) {
	r.Updated = time.Now()
	r.Value = value
	r.State = StateDone
}

// Error stores a failed result. Go errors carry no further state
// beyond their message, so the message is stored directly rather
// than any richer exception representation.
func (r *Result) Error(err error) {
	r.Updated = time.Now()
	r.IsError = true
	r.Value = err.Error()
	r.State = StateError
}

// Ident returns the task id and creation time.
func (r *Result) Ident() (string, time.Time) {
	return r.TaskID, r.Created
}

// Status returns the state and last-update time.
func (r *Result) Status() (State, time.Time) {
	return r.State, r.Updated
}

// ResultTuple returns the stored value and whether it represents an
// error.
func (r *Result) ResultTuple() (any, bool) {
	return r.Value, r.IsError
}
