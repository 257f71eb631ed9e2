// Package orchestrator runs configured pipelines: ordered lists of
// backend service calls executed in parallel or sequentially, with
// cross-step references, per-step response transforms and a declared
// merge strategy over the collected outcomes.
package orchestrator

import (
	"fmt"

	"service-orchestrator/internal/common/errors"
	"service-orchestrator/internal/services"
	"service-orchestrator/internal/transform"
)

// Merge modes.
const (
	MergeConcat       = "concat"
	MergeFirstSuccess = "first_success"
	MergeLast         = "last"
	// MergeSequential is concat that additionally forces ordered
	// execution.
	MergeSequential = "sequential"
)

// on_error policies.
const (
	OnErrorStop     = "stop"
	OnErrorContinue = "continue"
)

// PipelineStep is one configured call to a named backend service.
// Steps are immutable during a run.
type PipelineStep struct {
	ID            string                 `json:"id"`
	Service       string                 `json:"service"`
	Endpoint      string                 `json:"endpoint"`
	Method        string                 `json:"method,omitempty"`
	Params        map[string]interface{} `json:"params,omitempty"`
	DefaultParams map[string]interface{} `json:"default_params,omitempty"`
	Headers       map[string]string      `json:"headers,omitempty"`
	Body          map[string]interface{} `json:"body,omitempty"`
	Response      *transform.Config      `json:"response,omitempty"`
	OnError       string                 `json:"on_error,omitempty"` // stop (default) or continue
	Timeout       string                 `json:"timeout,omitempty"`
	CacheTTL      string                 `json:"cache_ttl,omitempty"`
	Retry         *services.RetryPolicy  `json:"retry,omitempty"`
}

// StopsOnError reports whether a failure of this step halts sequential
// execution. Stop is the default.
func (s *PipelineStep) StopsOnError() bool {
	return s.OnError != OnErrorContinue
}

// MergeConfig declares how the collected step outcomes reconcile into
// one value.
type MergeConfig struct {
	Mode      string             `json:"mode"`
	SourceTag bool               `json:"source_tag,omitempty"`
	Wrap      transform.WrapSpec `json:"wrap,omitempty"`
	// PreserveDeclaredOrder sorts parallel outcomes back into declared
	// step order before merging.
	PreserveDeclaredOrder bool `json:"preserve_declared_order,omitempty"`
}

// StepOutcome is the result of running one step. Created once, never
// mutated afterwards.
type StepOutcome struct {
	StepID  string
	Index   int // declared position in the step list
	Data    interface{}
	Success bool
	OnError string
}

// failedOutcome normalizes any step failure into the common shape: a
// map carrying an error key.
func failedOutcome(step *PipelineStep, index int, message string) *StepOutcome {
	return &StepOutcome{
		StepID:  step.ID,
		Index:   index,
		Data:    map[string]interface{}{"error": message},
		Success: false,
		OnError: step.OnError,
	}
}

// isErrorPayload reports whether a step result carries an error key,
// which is the failure signal for the whole subsystem.
func isErrorPayload(data interface{}) bool {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return false
	}
	_, failed := obj["error"]
	return failed
}

// ValidateSteps checks the pipeline definition against the registry
// before any execution starts: empty pipelines, duplicate ids, unknown
// services and malformed transforms are configuration errors.
func ValidateSteps(steps []*PipelineStep, registry services.Registry) error {
	if len(steps) == 0 {
		return errors.ValidationError("pipeline requires at least one step")
	}

	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step == nil {
			return errors.ValidationError(fmt.Sprintf("step %d is null", i))
		}
		if step.ID == "" {
			return errors.ValidationError(fmt.Sprintf("step %d requires an id", i))
		}
		if seen[step.ID] {
			return errors.ValidationError(fmt.Sprintf("duplicate step id %q", step.ID))
		}
		seen[step.ID] = true

		if step.Service == "" {
			return errors.ValidationError(fmt.Sprintf("step %s requires a service", step.ID))
		}
		if step.Endpoint == "" {
			return errors.ValidationError(fmt.Sprintf("step %s requires an endpoint", step.ID))
		}
		if _, err := registry.Get(step.Service); err != nil {
			return errors.ConfigError(fmt.Sprintf("step %s references unknown service %q", step.ID, step.Service))
		}

		switch step.OnError {
		case "", OnErrorStop, OnErrorContinue:
		default:
			return errors.ConfigError(fmt.Sprintf("step %s: on_error must be stop or continue, got %q", step.ID, step.OnError))
		}

		if step.Response != nil {
			if err := step.Response.Validate(); err != nil {
				return errors.ConfigError(fmt.Sprintf("step %s: invalid response transform: %v", step.ID, err))
			}
		}
	}

	return nil
}

// ValidateMerge checks the merge configuration.
func ValidateMerge(merge *MergeConfig) error {
	if merge == nil {
		return nil
	}
	switch merge.Mode {
	case "", MergeConcat, MergeFirstSuccess, MergeLast, MergeSequential:
		return nil
	}
	return errors.ConfigError(fmt.Sprintf("unknown merge mode %q", merge.Mode))
}
