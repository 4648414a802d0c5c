// Package registry declares the callable ATS operations and validates
// model-issued calls against their schemas. Lookup is pure: no side
// effects, stable definition order.
package registry

import (
	"fmt"

	"github.com/talentops/recruiter-agent/internal/domain"
)

type Registry struct {
	defs  []domain.FunctionDefinition
	index map[string]int
}

// New builds a registry from the given definitions. Names must be unique.
func New(defs ...domain.FunctionDefinition) (*Registry, error) {
	r := &Registry{
		defs:  make([]domain.FunctionDefinition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("registry: definition with empty name")
		}
		if _, dup := r.index[def.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate definition %q", def.Name)
		}
		r.index[def.Name] = len(r.defs)
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// Definitions returns all definitions in registration order. The slice is
// a copy; callers may not mutate registry state.
func (r *Registry) Definitions() []domain.FunctionDefinition {
	out := make([]domain.FunctionDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Resolve looks up a definition by name.
func (r *Registry) Resolve(name string) (domain.FunctionDefinition, error) {
	i, ok := r.index[name]
	if !ok {
		return domain.FunctionDefinition{}, fmt.Errorf("%w: %q", domain.ErrUnknownFunction, name)
	}
	return r.defs[i], nil
}

// ValidateArgs checks a call's arguments against a definition: required
// parameters present, no undeclared parameters, declared types respected.
func (r *Registry) ValidateArgs(def domain.FunctionDefinition, args map[string]any) error {
	for name, spec := range def.Parameters {
		val, ok := args[name]
		if !ok {
			if spec.Required {
				return fmt.Errorf("%w: missing required parameter %q for %s", domain.ErrInvalidArguments, name, def.Name)
			}
			continue
		}
		if err := checkValue(name, spec, val); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
		}
	}
	for name := range args {
		if _, declared := def.Parameters[name]; !declared {
			return fmt.Errorf("%w: undeclared parameter %q for %s", domain.ErrInvalidArguments, name, def.Name)
		}
	}
	return nil
}

func checkValue(name string, spec domain.ParamSpec, val any) error {
	switch spec.Type {
	case domain.TypeString:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("parameter %q must be a string", name)
		}
		if len(spec.Enum) > 0 && !contains(spec.Enum, s) {
			return fmt.Errorf("parameter %q must be one of %v", name, spec.Enum)
		}
	case domain.TypeNumber:
		if !isNumber(val) {
			return fmt.Errorf("parameter %q must be a number", name)
		}
	case domain.TypeInteger:
		if !isInteger(val) {
			return fmt.Errorf("parameter %q must be an integer", name)
		}
	case domain.TypeBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("parameter %q must be a boolean", name)
		}
	case domain.TypeArray:
		items, ok := val.([]any)
		if !ok {
			return fmt.Errorf("parameter %q must be an array", name)
		}
		for i, item := range items {
			if err := checkValue(fmt.Sprintf("%s[%d]", name, i), domain.ParamSpec{Type: spec.Items}, item); err != nil {
				return err
			}
		}
	case domain.TypeObject:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("parameter %q must be an object", name)
		}
	default:
		return fmt.Errorf("parameter %q has unsupported type %q", name, spec.Type)
	}
	return nil
}

// isNumber accepts the numeric types json.Unmarshal and model adapters
// can produce.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int64(n))
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
