// Package delegate binds the enrichment pipeline to a workflow engine's
// execution variables. Each delegate reads its inputs from the execution,
// performs one step, and publishes its outputs only when the step succeeds.
package delegate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// Variable names shared with process definitions.
const (
	VarAccessToken      = "accessToken"
	VarImageBase64      = "imageBase64"
	VarPDF              = "objPDF"
	VarUploadedResource = "uploadedResourceName"
	VarImageDescription = "imageDescription"
	VarVehicleMake      = "veh_make"
	VarVehicleModel     = "veh_model"
	VarVehicleColor     = "veh_color"
	VarVehicleYear      = "veh_year"
	VarVehiclePart      = "veh_part"
	VarDamageType       = "damage_type"
	VarDamageSeverity   = "damage_severity"
)

// ErrMissingVariable indicates a required execution variable is absent or empty.
var ErrMissingVariable = errors.New("missing execution variable")

// Variables is the get/set surface a workflow engine exposes to a delegate.
type Variables interface {
	Variable(name string) (any, bool)
	SetVariable(name string, value any)
}

// Delegate is one workflow service task.
type Delegate interface {
	Execute(ctx context.Context, vars Variables) error
}

// Execution is an in-memory Variables implementation.
type Execution struct {
	mu   sync.RWMutex
	vars map[string]any
}

// NewExecution creates an Execution seeded with initial.
func NewExecution(initial map[string]any) *Execution {
	vars := make(map[string]any, len(initial))
	maps.Copy(vars, initial)
	return &Execution{vars: vars}
}

func (e *Execution) Variable(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

func (e *Execution) SetVariable(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = value
}

// Snapshot returns a copy of all variables.
func (e *Execution) Snapshot() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.vars)
}

func requireString(vars Variables, name string) (string, error) {
	v, ok := vars.Variable(name)
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMissingVariable, name, v)
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, name)
	}
	return s, nil
}

func require(vars Variables, name string) (any, error) {
	v, ok := vars.Variable(name)
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
	}
	return v, nil
}
