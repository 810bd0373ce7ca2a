package tasker

import (
	"fmt"
	"reflect"

	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

// Func is the shape every registered task callable must have: args and
// kwargs are validated against the task's declared Signature before the
// call is made when RunTask is called with validate set.
type Func func(args []any, kwargs map[string]any) (any, error)

// Hook is a pre- or post-execute callback, receiving the task name,
// supplied args, supplied kwargs, and (for post-execute only) the result.
type Hook func(name string, args []any, kwargs map[string]any, result any)

func noopHook(string, []any, map[string]any, any) {}

// wrapper is a registered task plus its declared Signature and optional
// pre/post hooks.
type wrapper struct {
	name      string
	f         Func
	signature Signature
	pre       Hook
	post      Hook
}

func newWrapper(name string, f Func, sig Signature) *wrapper {
	return &wrapper{
		name:      name,
		f:         f,
		signature: sig,
		pre:       noopHook,
		post:      noopHook,
	}
}

// validate checks args/kwargs against the wrapper's Signature under five
// rules:
//  1. a keyword-only param missing from kwargs with no default fails.
//  2. a positional-only param missing from args by index with no
//     default fails.
//  3. a param with no default, accepted either way, missing from both
//     args (by index) and kwargs fails.
//  4. if present, the param's declared type must strictly match the
//     dynamic type of whichever of args/kwargs supplied it.
//  5. any kwarg name absent from the declared Signature fails.
func (w *wrapper) validate(args []any, kwargs map[string]any) error {
	for i, p := range w.signature {
		switch {
		case p.Kind == ParamKeywordOnly:
			if _, ok := kwargs[p.Name]; !ok && !p.HasDefault {
				return fmt.Errorf("%s is keyword-only and not in kwargs provided: %w", p.Name, orcerr.ErrInvalidTaskArguments)
			}
		case p.Kind == ParamPositionalOnly:
			if !p.HasDefault && i > len(args)-1 {
				return fmt.Errorf("%s is positional-only and arg length is less than its index: %w", p.Name, orcerr.ErrInvalidTaskArguments)
			}
		case !p.HasDefault:
			_, inKwargs := kwargs[p.Name]
			if i > len(args)-1 && !inKwargs {
				return fmt.Errorf("%s not found in args nor kwargs: %w", p.Name, orcerr.ErrInvalidTaskArguments)
			}
		}
		if p.Type != nil {
			v, inKwargs := kwargs[p.Name]
			inArgs := i <= len(args)-1
			argOK := inArgs && reflect.TypeOf(args[i]) == p.Type
			kwargOK := inKwargs && reflect.TypeOf(v) == p.Type
			if (inArgs || inKwargs) && !argOK && !kwargOK {
				return fmt.Errorf("%s type mismatch for both arg and kwarg kinds: %w", p.Name, orcerr.ErrInvalidTaskArguments)
			}
		}
	}

	names := make(map[string]bool, len(w.signature))
	for _, p := range w.signature {
		names[p.Name] = true
	}
	for name := range kwargs {
		if !names[name] {
			return fmt.Errorf("%s keyword argument provided is not in function signature: %w", name, orcerr.ErrInvalidTaskArguments)
		}
	}
	return nil
}

// run calls the wrapped Func, surrounding it with the registered pre-
// and post-execute hooks.
func (w *wrapper) run(args []any, kwargs map[string]any) (any, error) {
	w.pre(w.name, args, kwargs, nil)
	res, err := w.f(args, kwargs)
	w.post(w.name, args, kwargs, res)
	return res, err
}

func (w *wrapper) registerPre(f Hook) {
	w.pre = f
}

func (w *wrapper) registerPost(f Hook) {
	w.post = f
}
