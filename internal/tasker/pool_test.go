package tasker_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/orchestrator/internal/configloader"
	"github.com/fenwicklabs/orchestrator/internal/connector"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
	"github.com/fenwicklabs/orchestrator/internal/tasker"
)

func newTestPool(t *testing.T, tasks map[string]tasker.TaskDef) *tasker.Pool {
	t.Helper()
	conn := connector.NewMemory()
	cfg := configloader.NewPersistent(conn)
	pool, err := tasker.NewPool(context.Background(), tasker.PoolOptions{
		Connector:    conn,
		Config:       cfg,
		Tasks:        tasks,
		SkipRecovery: true,
	})
	require.NoError(t, err)
	return pool
}

func echoTask(_ []any, kwargs map[string]any) (any, error) {
	return kwargs["value"], nil
}

func failTask(_ []any, _ map[string]any) (any, error) {
	return nil, errors.New("boom")
}

func TestHealthTaskBlocking(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	ctx := context.Background()

	res, err := pool.RunTask(ctx, "health", nil, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, tasker.StateDone, res.State)
	val, isErr := res.ResultTuple()
	assert.False(t, isErr)
	assert.Equal(t, "OK", val)
}

func TestRunTaskNotFound(t *testing.T) {
	pool := newTestPool(t, nil)
	_, err := pool.RunTask(context.Background(), "missing", nil, nil, true, false)
	assert.ErrorIs(t, err, orcerr.ErrTaskNotFound)
}

func TestRunTaskNonBlockingEventuallyCompletes(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{
		"echo": {Func: echoTask, Signature: tasker.Signature{
			{Name: "value", Kind: tasker.ParamKeywordOnly, HasDefault: false},
		}},
	})
	ctx := context.Background()

	res, err := pool.RunTask(ctx, "echo", nil, map[string]any{"value": "hi"}, false, true)
	require.NoError(t, err)
	assert.Equal(t, tasker.StateNew, res.State)

	deadline := time.Now().Add(2 * time.Second)
	var final *tasker.Result
	for time.Now().Before(deadline) {
		final, err = pool.GetTaskInfo(ctx, res.TaskID)
		require.NoError(t, err)
		if final.State == tasker.StateDone || final.State == tasker.StateError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, final)
	assert.Equal(t, tasker.StateDone, final.State)
	val, isErr := final.ResultTuple()
	assert.False(t, isErr)
	assert.Equal(t, "hi", val)
}

func TestRunTaskCapturesFailure(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"fail": {Func: failTask}})
	res, err := pool.RunTask(context.Background(), "fail", nil, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, tasker.StateError, res.State)
	val, isErr := res.ResultTuple()
	assert.True(t, isErr)
	assert.Equal(t, "boom", val)
}

func TestValidateRejectsMissingKeywordOnly(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{
		"echo": {Func: echoTask, Signature: tasker.Signature{
			{Name: "value", Kind: tasker.ParamKeywordOnly},
		}},
	})
	_, err := pool.RunTask(context.Background(), "echo", nil, nil, true, true)
	assert.ErrorIs(t, err, orcerr.ErrInvalidTaskArguments)
}

func TestValidateRejectsTypeMismatch(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{
		"echo": {Func: echoTask, Signature: tasker.Signature{
			{Name: "value", Kind: tasker.ParamKeywordOnly, Type: reflect.TypeOf(0)},
		}},
	})
	_, err := pool.RunTask(context.Background(), "echo", nil, map[string]any{"value": "not an int"}, true, true)
	assert.ErrorIs(t, err, orcerr.ErrInvalidTaskArguments)
}

func TestValidateRejectsUnknownKeyword(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	_, err := pool.RunTask(context.Background(), "health", nil, map[string]any{"bogus": 1}, true, true)
	assert.ErrorIs(t, err, orcerr.ErrInvalidTaskArguments)
}

func TestListTasks(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	ctx := context.Background()
	_, err := pool.RunTask(ctx, "health", nil, nil, true, false)
	require.NoError(t, err)
	_, err = pool.RunTask(ctx, "health", nil, nil, true, false)
	require.NoError(t, err)

	tasks, err := pool.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestAddPreAndPostHooksRun(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	var preRan, postRan bool
	require.NoError(t, pool.AddPre("health", func(name string, args []any, kwargs map[string]any, result any) {
		preRan = true
	}))
	require.NoError(t, pool.AddPost("health", func(name string, args []any, kwargs map[string]any, result any) {
		postRan = true
	}))

	_, err := pool.RunTask(context.Background(), "health", nil, nil, true, false)
	require.NoError(t, err)
	assert.True(t, preRan)
	assert.True(t, postRan)
}

func TestAddPreUnknownTask(t *testing.T) {
	pool := newTestPool(t, nil)
	err := pool.AddPre("missing", func(string, []any, map[string]any, any) {})
	assert.ErrorIs(t, err, orcerr.ErrTaskNotFound)
}

func TestKillTaskNotImplemented(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	err := pool.KillTask(context.Background(), "whatever")
	assert.ErrorIs(t, err, orcerr.ErrNotImplemented)
}

func TestGetSelfStatus(t *testing.T) {
	pool := newTestPool(t, map[string]tasker.TaskDef{"health": tasker.HealthDef})
	status := pool.GetSelfStatus()
	assert.Equal(t, 1, status.MaxWorkers)
	assert.Len(t, status.Busy, 1)
}

func TestRecoversBorkedTasksOnConstruction(t *testing.T) {
	conn := connector.NewMemory()
	cfg := configloader.NewPersistent(conn)
	ctx := context.Background()
	require.NoError(t, cfg.InitConfig(ctx, tasker.Config))

	orphan := tasker.NewResult("orphan-1", "health", nil, nil)
	raw, err := connector.Encode(orphan)
	require.NoError(t, err)
	require.NoError(t, conn.Set(ctx, "tasker.tasks.orphan-1", raw, 0))

	pool, err := tasker.NewPool(ctx, tasker.PoolOptions{
		Connector: conn,
		Config:    cfg,
		Tasks:     map[string]tasker.TaskDef{"health": tasker.HealthDef},
	})
	require.NoError(t, err)

	recovered, err := pool.GetTaskInfo(ctx, "orphan-1")
	require.NoError(t, err)
	require.NotNil(t, recovered)
	assert.Equal(t, tasker.StateError, recovered.State)
}
