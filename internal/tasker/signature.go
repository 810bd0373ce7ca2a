package tasker

import "reflect"

// ParamKind describes how a parameter may be supplied to a task Func.
// Go function values carry no parameter names or calling convention at
// runtime, so this has to be declared by the task author instead of
// discovered by reflection.
type ParamKind int

const (
	// ParamEither accepts the parameter positionally or by keyword.
	ParamEither ParamKind = iota
	// ParamPositionalOnly accepts the parameter only by position.
	ParamPositionalOnly
	// ParamKeywordOnly accepts the parameter only by keyword.
	ParamKeywordOnly
)

// ParamSpec declares one parameter a task Func expects.
type ParamSpec struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
	// Type, if non-nil, is checked against the supplied argument's
	// dynamic type with strict equality (reflect.TypeOf). Nil accepts
	// any type.
	Type reflect.Type
}

// Signature is the ordered parameter list a Func is validated against.
type Signature []ParamSpec
