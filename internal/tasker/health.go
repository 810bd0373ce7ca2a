package tasker

// Health is the built-in smoke-test task. It takes no arguments and
// always succeeds, making it a convenient liveness probe once registered.
func Health(_ []any, _ map[string]any) (any, error) {
	return "OK", nil
}

// HealthDef is Health paired with its (empty) Signature, ready for
// RegisterTask.
var HealthDef = TaskDef{Func: Health, Signature: Signature{}}
