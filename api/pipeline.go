package api

// PipelineSpec is the root of a declarative pipeline definition file.
// Processes defined this way bind builtin steps by name and declare their
// inputs and outputs as dot paths.
type PipelineSpec struct {
	// Version of the definition format.
	Version string `json:"version" yaml:"version"`
	// RowUnit is the clock unit that advances the row index ("hour" by default).
	RowUnit string `json:"row_unit,omitempty" yaml:"row_unit,omitempty"`
	// Debug enables required-input assertions and timing records.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
	// Immutable deep-copies the state before every step.
	Immutable bool `json:"immutable,omitempty" yaml:"immutable,omitempty"`
	// Processes run in order.
	Processes []ProcessSpec `json:"processes" yaml:"processes"`
}

// Input sources.
const (
	SourceState      = "state"
	SourceConfig     = "config"
	SourceParameters = "parameters"
	SourceExternal   = "external"
	SourceAdditional = "additional"
)

// ProcessSpec declares one step.
type ProcessSpec struct {
	// Name becomes the process comment.
	Name string `json:"name" yaml:"name"`
	// Step names a builtin step function (see internal/steps).
	Step string `json:"step,omitempty" yaml:"step,omitempty"`
	// Type is "standard" (default), "time" or "log".
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
	// Gate skips the process when its condition is false.
	Gate *GateSpec `json:"gate,omitempty" yaml:"gate,omitempty"`
	// Inputs are resolved in source precedence order, not file order.
	Inputs  []InputSpec  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []OutputSpec `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Args are fixed positional arguments.
	Args []any `json:"args,omitempty" yaml:"args,omitempty"`
	// FormatOutput commits outputs by resolving From against the result at
	// commit time instead of at mapping time.
	FormatOutput bool `json:"format_output,omitempty" yaml:"format_output,omitempty"`
	// Unit and By configure time processes (default: advance one row).
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	By   int    `json:"by,omitempty" yaml:"by,omitempty"`
}

// InputSpec declares one input binding.
type InputSpec struct {
	// Source is one of state, config, parameters, external, additional.
	Source string `json:"source" yaml:"source"`
	// From is a dot path into the source. External paths may reference the
	// current row as {{.Row}}.
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	// As is the argument name; empty means positional.
	As       string `json:"as,omitempty" yaml:"as,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	// Value is the literal for additional (ad hoc) inputs.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// OutputSpec maps part of a step result to a state path.
type OutputSpec struct {
	// From is a path into the result; "_result" or empty is the whole result.
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	// To is the write path; a final "+" appends.
	To string `json:"to" yaml:"to"`
}

// Gate operators.
const (
	OpLT     = "lt"
	OpLE     = "le"
	OpGT     = "gt"
	OpGE     = "ge"
	OpEQ     = "eq"
	OpNE     = "ne"
	OpTruthy = "truthy"
)

// GateSpec compares the state value at Path with Value.
type GateSpec struct {
	Path  string `json:"path" yaml:"path"`
	Op    string `json:"op,omitempty" yaml:"op,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}
