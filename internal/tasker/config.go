package tasker

import "github.com/fenwicklabs/orchestrator/internal/configloader"

// Config keys tunable at runtime for the worker pool.
var (
	WorkerNum = configloader.Key{
		Namespace:   "orchestrator.tasker.workers",
		Default:     1,
		Public:      true,
		Description: "number of workers to run",
	}
	TaskEx = configloader.Key{
		Namespace:   "orchestrator.tasker.task_lifetime",
		Default:     86400,
		Public:      true,
		Description: "time in seconds after which any task is considered dead and is deleted",
	}
	TaskResultEx = configloader.Key{
		Namespace:   "orchestrator.tasker.task_expire",
		Default:     3600,
		Public:      true,
		Description: "timeout for task result hold, also applies to closed tasks hold time",
	}
	TaskPath = configloader.Key{
		Namespace:   "orchestrator.tasker.task_key",
		Default:     "tasker.tasks",
		Public:      false,
		Description: "connector key prefix to store task result objects",
	}
	TaskSyncRefreshRate = configloader.Key{
		Namespace:   "orchestrator.tasker.task_sync_refresh",
		Default:     5,
		Public:      true,
		Description: "determines how often a synchronous request checks task status",
	}
	TaskSyncTimeout = configloader.Key{
		Namespace:   "orchestrator.tasker.task_sync_timeout",
		Default:     180,
		Public:      true,
		Description: "timeout for a synchronous task call",
	}
	Validate = configloader.Key{
		Namespace:   "orchestrator.tasker.validate_tasks",
		Default:     true,
		Public:      true,
		Description: "check if by default task signatures are validated against provided arguments",
	}
)

// Config is the full TaskerConfig bundle, ready for ConfigLoader.InitConfig.
var Config = configloader.Bundle{
	WorkerNum, TaskEx, TaskResultEx, TaskPath, TaskSyncRefreshRate, TaskSyncTimeout, Validate,
}
