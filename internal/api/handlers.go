package api

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/fenwicklabs/orchestrator/internal/tasker"
)

// taskGet reports the stored status and result for one task.
func (s *Server) taskGet(c *gin.Context) {
	taskID := c.Param("task")
	res, err := s.tasker.GetTaskInfo(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, genResponse(err.Error(), true))
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, genResponse("task "+taskID+" not found", true))
		return
	}

	state, updated := res.Status()
	id, _ := res.Ident()
	value, isError := res.ResultTuple()
	c.JSON(http.StatusOK, genResponse(
		"task is in "+string(state)+" status",
		isError,
		WithResponse(value),
		WithObject(id),
		WithTimestamp(updated.Unix()),
	))
}

func (s *Server) shouldValidate(c *gin.Context) (bool, error) {
	header := c.GetHeader("Validate")
	if header != "" {
		return header == "true", nil
	}
	val, err := s.config.Get(c.Request.Context(), tasker.Validate)
	if err != nil {
		return false, err
	}
	b, _ := val.(bool)
	return b, nil
}

func (s *Server) runFromRequest(c *gin.Context, blocking bool) {
	task := c.Param("task")
	validate, err := s.shouldValidate(c)
	if err != nil {
		c.JSON(http.StatusOK, genResponse(err.Error(), true))
		return
	}

	kwargs := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&kwargs); err != nil {
			c.JSON(http.StatusOK, genResponse("invalid request body: "+err.Error(), true))
			return
		}
	}

	res, err := s.tasker.RunTask(c.Request.Context(), task, nil, kwargs, blocking, validate)
	if err != nil {
		c.JSON(http.StatusOK, genResponse(err.Error(), true))
		return
	}

	message := "task registered"
	if blocking {
		message = "task ran"
	}
	id, _ := res.Ident()
	_, updated := res.Status()
	value, isError := res.ResultTuple()
	c.JSON(http.StatusOK, genResponse(
		message,
		isError,
		WithResponse(value),
		WithObject(id),
		WithTimestamp(updated.Unix()),
	))
}

// taskPost queues a task for non-blocking execution.
func (s *Server) taskPost(c *gin.Context) {
	s.runFromRequest(c, false)
}

// taskPut runs a task and blocks until it finishes.
func (s *Server) taskPut(c *gin.Context) {
	s.runFromRequest(c, true)
}

type controlEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Progress  bool    `json:"progress"`
	WorkedFor float64 `json:"worked_for"`
}

// controlGet lists every stored task with its progress and age.
func (s *Server) controlGet(c *gin.Context) {
	tasks, err := s.tasker.ListTasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, genResponse(err.Error(), true))
		return
	}

	entries := make([]controlEntry, 0, len(tasks))
	for _, t := range tasks {
		id, created := t.Ident()
		_, updated := t.Status()
		value, isError := t.ResultTuple()
		entries = append(entries, controlEntry{
			ID:        id,
			Name:      t.Name,
			Progress:  value == nil && !isError,
			WorkedFor: updated.Sub(created).Seconds(),
		})
	}
	c.JSON(http.StatusOK, entries)
}

// controlDelete attempts to kill a running task.
func (s *Server) controlDelete(c *gin.Context) {
	taskID := c.Query("task_id")
	err := s.tasker.KillTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusOK, genResponse(err.Error(), true))
		return
	}
	c.JSON(http.StatusOK, genResponse("task "+taskID+" killed", false))
}

type publicEntry struct {
	Description string `json:"desc"`
	Value       any    `json:"val"`
}

// serviceGet reports public config values alongside worker pool status.
func (s *Server) serviceGet(c *gin.Context) {
	ctx := c.Request.Context()
	public, err := s.config.ListPublic(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, genResponse(err.Error(), true))
		return
	}

	configurable := make(map[string]publicEntry, len(public))
	for ns, desc := range public {
		val, err := s.config.GetPublic(ctx, ns)
		if err != nil {
			c.JSON(http.StatusInternalServerError, genResponse(err.Error(), true))
			return
		}
		configurable[ns] = publicEntry{Description: desc, Value: val}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasker_status": s.tasker.GetSelfStatus(),
		"api_status":    "alive",
		"configurable":  configurable,
	})
}

type patchResult struct {
	Error    bool   `json:"error"`
	Response string `json:"response"`
}

// servicePatch updates one or more public config values by namespace.
func (s *Server) servicePatch(c *gin.Context) {
	ctx := c.Request.Context()

	// encoding/json decodes every JSON number into float64 by default,
	// which would spuriously fail the type-equality check below against
	// int-typed config defaults (WORKER_NUM, API_PORT, ...). Decoding
	// with UseNumber and coercing against the stored value's type keeps
	// this check meaningful regardless of whether the target is an int
	// or a float config value.
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	var rawBody map[string]any
	if err := decoder.Decode(&rawBody); err != nil {
		c.JSON(http.StatusOK, genResponse("invalid request body: "+err.Error(), true))
		return
	}

	results := make(map[string]patchResult, len(rawBody))
	for key, value := range rawBody {
		public, err := s.config.CheckPublic(ctx, key)
		if err != nil || !public {
			results[key] = patchResult{Error: true, Response: "config not changeable or doesn't exist"}
			continue
		}
		current, err := s.config.GetPublic(ctx, key)
		if err != nil {
			results[key] = patchResult{Error: true, Response: err.Error()}
			continue
		}
		value = coerceToMatch(current, value)
		if current != nil && reflect.TypeOf(current) != reflect.TypeOf(value) {
			results[key] = patchResult{Error: true, Response: "type mismatch"}
			continue
		}
		if err := s.config.SetPublic(ctx, key, value); err != nil {
			results[key] = patchResult{Error: true, Response: err.Error()}
			continue
		}
		results[key] = patchResult{Error: false, Response: key + " data is set"}
	}
	c.JSON(http.StatusOK, results)
}

// serviceDelete requests a graceful server shutdown.
func (s *Server) serviceDelete(c *gin.Context) {
	s.requestShutdown()
	c.JSON(http.StatusOK, genResponse("shutting down server", false))
}

// coerceToMatch converts a json.Number decoded from a PATCH body into
// whichever numeric type current already holds, so the type-equality
// check above compares like with like instead of tripping on Go's
// float64-for-every-JSON-number default.
func coerceToMatch(current any, value any) any {
	num, ok := value.(json.Number)
	if !ok {
		return value
	}
	switch current.(type) {
	case int:
		if n, err := num.Int64(); err == nil {
			return int(n)
		}
	case float64:
		if f, err := num.Float64(); err == nil {
			return f
		}
	}
	return value
}
