// Package tasker runs registered callables on a worker pool and persists
// their lifecycle (new/progress/done/error) through a connector.Connector.
package tasker

import "context"

// TaskDef is a task callable paired with its author-declared Signature,
// the unit RegisterTask and the Tasker constructor accept.
type TaskDef struct {
	Func      Func
	Signature Signature
}

// SelfStatus reports worker pool occupancy.
type SelfStatus struct {
	MaxWorkers int
	Busy       []bool
}

// Tasker is the contract every task-execution backend implements.
type Tasker interface {
	// RegisterTask adds name to the task registry.
	RegisterTask(name string, def TaskDef) error

	// RunTask queues name for execution with args/kwargs. If validate is
	// true, arguments are checked against the task's Signature before
	// queuing. If blocking is true, RunTask waits for completion and
	// returns the finished Result; otherwise it returns immediately with
	// the Result as reloaded right after queuing, normally still NEW.
	RunTask(ctx context.Context, name string, args []any, kwargs map[string]any, blocking, validate bool) (*Result, error)

	// GetTaskInfo loads the stored Result for taskID, or nil if absent.
	GetTaskInfo(ctx context.Context, taskID string) (*Result, error)

	// ListTasks returns every stored Result under the task key prefix.
	ListTasks(ctx context.Context) ([]*Result, error)

	// GetSelfStatus reports worker pool occupancy.
	GetSelfStatus() SelfStatus

	// AddPre registers a pre-execute hook for name.
	AddPre(name string, hook Hook) error

	// AddPost registers a post-execute hook for name.
	AddPost(name string, hook Hook) error

	// KillTask is unsupported by the pool-based implementation: a running
	// goroutine cannot be safely preempted from outside.
	KillTask(ctx context.Context, taskID string) error

	// GracefulShutdown releases the underlying Connector and ConfigLoader.
	GracefulShutdown(ctx context.Context) error
}
