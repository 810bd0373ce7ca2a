package tasker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/configloader"
	"github.com/fenwicklabs/orchestrator/internal/connector"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	conductor.Register(conductor.RoleTasker, "pool", func(bag conductor.Bag) (any, error) {
		conn, ok := bag["connector"].(connector.Connector)
		if !ok {
			return nil, fmt.Errorf("tasker: bag missing \"connector\": %w", orcerr.ErrConnectorInitFail)
		}
		cfg, ok := bag["configurator"].(configloader.ConfigLoader)
		if !ok {
			return nil, fmt.Errorf("tasker: bag missing \"configurator\": %w", orcerr.ErrConnectorInitFail)
		}
		tasks, _ := bag["tasks"].(map[string]TaskDef)
		return NewPool(context.Background(), PoolOptions{
			Connector:    conn,
			Config:       cfg,
			Tasks:        tasks,
			SkipRecovery: false,
		})
	})
}

type job struct {
	taskID string
	w      *wrapper
	args   []any
	kwargs map[string]any
}

// PoolOptions configures a Pool at construction.
type PoolOptions struct {
	Connector connector.Connector
	Config    configloader.ConfigLoader
	Tasks     map[string]TaskDef
	// SkipRecovery disables the startup scan that marks orphaned NEW/
	// PROGRESS results as ErrBorkedException. Left false in production;
	// set true only for tests that seed stores with intentionally
	// unfinished results.
	SkipRecovery bool
}

// Pool is a goroutine worker pool over a registry of named tasks,
// persisting Results through a Connector. Generalized from a
// cached-container worker idiom into a fixed-size goroutine pool
// matching a thread-pool executor.
type Pool struct {
	conn   connector.Connector
	config configloader.ConfigLoader

	tasksMu sync.RWMutex
	tasks   map[string]*wrapper

	// queue is an unbounded backlog of non-blocking job submissions.
	// Enqueuing never blocks the caller on worker availability, matching
	// a thread-pool executor's submit(): the caller only waits on
	// ctx.Done() while persisting the queued Result, never on pool
	// saturation.
	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     []job

	workerNum int
	activeMu  sync.Mutex
	active    map[int]string // worker index -> task id currently running
}

// NewPool initializes ConfigLoader with TaskerConfig, registers the
// supplied tasks, starts the worker pool, and recovers orphaned task
// results left over from a previous crash.
func NewPool(ctx context.Context, opts PoolOptions) (*Pool, error) {
	slog.Info("initializing tasker", "name", "pool")
	if err := opts.Config.InitConfig(ctx, Config); err != nil {
		return nil, fmt.Errorf("tasker: init config: %w", err)
	}

	tasks := make(map[string]*wrapper, len(opts.Tasks))
	for name, def := range opts.Tasks {
		tasks[name] = newWrapper(name, def.Func, def.Signature)
	}

	workerNumAny, err := opts.Config.Get(ctx, WorkerNum)
	if err != nil {
		return nil, fmt.Errorf("tasker: read worker count: %w", err)
	}
	workerNum, _ := workerNumAny.(int)
	if workerNum < 1 {
		workerNum = 1
	}

	p := &Pool{
		conn:      opts.Connector,
		config:    opts.Config,
		tasks:     tasks,
		workerNum: workerNum,
		active:    make(map[int]string, workerNum),
	}
	p.queueCond = sync.NewCond(&p.queueMu)

	for i := 0; i < workerNum; i++ {
		go p.worker(i)
	}

	if !opts.SkipRecovery {
		if err := p.recover(ctx); err != nil {
			return nil, err
		}
	}

	slog.Info("tasker initialized", "name", "pool", "workers", workerNum)
	return p, nil
}

// recover scans stored Results for ones left NEW/PROGRESS by a prior
// process that died mid-task, marking them ErrBorkedException.
func (p *Pool) recover(ctx context.Context) error {
	results, err := p.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("tasker: recovery scan: %w", err)
	}
	for _, res := range results {
		if res.Value == nil && !res.IsError {
			slog.Debug("recovering borked task", "task_id", res.TaskID)
			res.Error(orcerr.ErrBorkedException)
			if err := p.save(ctx, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pool) taskKey(ctx context.Context, taskID string) (string, error) {
	prefix, err := p.config.Get(ctx, TaskPath)
	if err != nil {
		return "", fmt.Errorf("tasker: read task path: %w", err)
	}
	prefixStr, _ := prefix.(string)
	return prefixStr + "." + taskID, nil
}

func (p *Pool) save(ctx context.Context, res *Result) error {
	key, err := p.taskKey(ctx, res.TaskID)
	if err != nil {
		return err
	}
	var exKey configloader.Key
	if res.State == StateDone || res.State == StateError {
		exKey = TaskResultEx
	} else {
		exKey = TaskEx
	}
	exAny, err := p.config.Get(ctx, exKey)
	if err != nil {
		return fmt.Errorf("tasker: read expiry: %w", err)
	}
	ex, _ := exAny.(int)

	raw, err := connector.Encode(res)
	if err != nil {
		return fmt.Errorf("tasker: encode result %s: %w", res.TaskID, err)
	}
	if err := p.conn.Set(ctx, key, raw, ex); err != nil {
		return fmt.Errorf("tasker: save result %s: %w", res.TaskID, err)
	}
	return nil
}

func (p *Pool) load(ctx context.Context, taskID string) (*Result, error) {
	key, err := p.taskKey(ctx, taskID)
	if err != nil {
		return nil, err
	}
	raw, err := p.conn.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("tasker: load result %s: %w", taskID, err)
	}
	if raw == nil {
		return nil, nil
	}
	var res Result
	if err := connector.Decode(raw, &res); err != nil {
		return nil, fmt.Errorf("tasker: decode result %s: %w", taskID, err)
	}
	return &res, nil
}

func (p *Pool) RegisterTask(name string, def TaskDef) error {
	slog.Info("registering task", "name", name)
	p.tasksMu.Lock()
	defer p.tasksMu.Unlock()
	p.tasks[name] = newWrapper(name, def.Func, def.Signature)
	return nil
}

func (p *Pool) AddPre(name string, hook Hook) error {
	p.tasksMu.RLock()
	w, ok := p.tasks[name]
	p.tasksMu.RUnlock()
	if !ok {
		return fmt.Errorf("cant register pre-execute: task %s not found in registry: %w", name, orcerr.ErrTaskNotFound)
	}
	w.registerPre(hook)
	return nil
}

func (p *Pool) AddPost(name string, hook Hook) error {
	p.tasksMu.RLock()
	w, ok := p.tasks[name]
	p.tasksMu.RUnlock()
	if !ok {
		return fmt.Errorf("cant register post-execute: task %s not found in registry: %w", name, orcerr.ErrTaskNotFound)
	}
	w.registerPost(hook)
	return nil
}

func (p *Pool) RunTask(ctx context.Context, name string, args []any, kwargs map[string]any, blocking, validate bool) (*Result, error) {
	slog.Info("task run requested", "name", name)
	p.tasksMu.RLock()
	w, ok := p.tasks[name]
	p.tasksMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("task %s not found in registry: %w", name, orcerr.ErrTaskNotFound)
	}
	if validate {
		if err := w.validate(args, kwargs); err != nil {
			return nil, err
		}
	}

	taskID := uuid.New().String()
	res := NewResult(taskID, w.name, args, kwargs)
	if err := p.save(ctx, res); err != nil {
		return nil, err
	}

	if blocking {
		value, err := p.runOne(ctx, taskID, w, args, kwargs)
		if err != nil {
			res.Error(err)
		} else {
			res.Closed(value)
		}
		if err := p.save(ctx, res); err != nil {
			return nil, err
		}
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.enqueue(job{taskID: taskID, w: w, args: args, kwargs: kwargs})
	return p.load(ctx, taskID)
}

// enqueue appends j to the backlog and wakes one waiting worker. It
// never blocks, regardless of how many workers are busy.
func (p *Pool) enqueue(j job) {
	p.queueMu.Lock()
	p.queue = append(p.queue, j)
	p.queueMu.Unlock()
	p.queueCond.Signal()
}

// dequeue blocks until a job is available, then removes and returns it.
func (p *Pool) dequeue() job {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	for len(p.queue) == 0 {
		p.queueCond.Wait()
	}
	j := p.queue[0]
	p.queue = p.queue[1:]
	return j
}

// runOne runs w synchronously, marking the stored result PROGRESS first.
func (p *Pool) runOne(ctx context.Context, taskID string, w *wrapper, args []any, kwargs map[string]any) (any, error) {
	res, err := p.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	res.Started()
	if err := p.save(ctx, res); err != nil {
		return nil, err
	}
	return w.run(args, kwargs)
}

// worker is one pool slot, pulling jobs off the shared backlog and
// settling the stored Result inline on completion, in the same
// goroutine that ran the task rather than a separate callback.
func (p *Pool) worker(index int) {
	for {
		j := p.dequeue()
		p.activeMu.Lock()
		p.active[index] = j.taskID
		p.activeMu.Unlock()

		ctx := context.Background()
		value, err := p.runOne(ctx, j.taskID, j.w, j.args, j.kwargs)

		res, loadErr := p.load(ctx, j.taskID)
		if loadErr == nil && res != nil {
			if err != nil {
				res.Error(err)
			} else {
				res.Closed(value)
			}
			if saveErr := p.save(ctx, res); saveErr != nil {
				slog.Error("failed saving task result", "task_id", j.taskID, "error", saveErr)
			}
		} else if loadErr != nil {
			slog.Error("failed reloading task result", "task_id", j.taskID, "error", loadErr)
		}

		p.activeMu.Lock()
		delete(p.active, index)
		p.activeMu.Unlock()
	}
}

func (p *Pool) GetTaskInfo(ctx context.Context, taskID string) (*Result, error) {
	return p.load(ctx, taskID)
}

func (p *Pool) ListTasks(ctx context.Context) ([]*Result, error) {
	slog.Info("task list requested")
	prefixAny, err := p.config.Get(ctx, TaskPath)
	if err != nil {
		return nil, fmt.Errorf("tasker: read task path: %w", err)
	}
	prefix, _ := prefixAny.(string)
	keys, err := p.conn.Keys(ctx, prefix+".*")
	if err != nil {
		return nil, fmt.Errorf("tasker: list keys: %w", err)
	}
	out := make([]*Result, 0, len(keys))
	for _, key := range keys {
		taskID := key[strings.LastIndex(key, ".")+1:]
		res, err := p.load(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

func (p *Pool) GetSelfStatus() SelfStatus {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	busy := make([]bool, p.workerNum)
	for i := range busy {
		_, busy[i] = p.active[i]
	}
	return SelfStatus{MaxWorkers: p.workerNum, Busy: busy}
}

func (p *Pool) KillTask(_ context.Context, _ string) error {
	return fmt.Errorf("kill task: %w", orcerr.ErrNotImplemented)
}

func (p *Pool) GracefulShutdown(ctx context.Context) error {
	slog.Info("tasker shutting down", "name", "pool")
	if err := p.config.GracefulShutdown(ctx); err != nil {
		return err
	}
	return p.conn.GracefulShutdown(ctx)
}
