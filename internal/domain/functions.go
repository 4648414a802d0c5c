package domain

// ParamType is the closed set of JSON-like types a function schema may use.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// ParamSpec describes one parameter of a function definition.
type ParamSpec struct {
	Type        ParamType
	Description string
	Required    bool
	Enum        []string  // optional, string params only
	Items       ParamType // element type, array params only
}

// FieldSpec describes one field of a function's declared result shape.
type FieldSpec struct {
	Type  ParamType
	Items ParamType // element type, array fields only
}

// FunctionDefinition declares one simulated backend operation: its name,
// a human-readable description, a parameter schema, and optionally the
// shape its results are validated against plus the GraphQL document used
// in passthrough mode.
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec

	// Returns, when non-nil, constrains the top-level fields of a
	// simulated payload. Fields the simulator invents outside this set
	// are stripped; declared fields with the wrong type fail validation.
	Returns map[string]FieldSpec

	// GraphQL is the query or mutation dispatched by the passthrough
	// backend. Empty for mock-only operations.
	GraphQL string
}

// FunctionCall is a model-issued request to invoke a definition with
// specific arguments. It lives for one agent-loop round.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// FunctionResult is the structured payload produced for exactly one
// FunctionCall, attributed through CallID.
type FunctionResult struct {
	CallID  string
	Name    string
	Payload map[string]any
	Failed  bool
	Error   string
}
