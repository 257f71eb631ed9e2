package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"service-orchestrator/internal/common/cache"
	"service-orchestrator/internal/common/logging"
	"service-orchestrator/internal/common/utils"
	"service-orchestrator/internal/httpcall"
	"service-orchestrator/internal/services"
	"service-orchestrator/internal/transform"
)

// defaultStepTimeout bounds a step when neither the service nor the
// step declares one.
const defaultStepTimeout = 10 * time.Second

// StepExecutor runs a single pipeline step: resolves the service, the
// endpoint, parameters, headers and body, performs the HTTP call and
// applies the step's response transform. A step execution never
// returns an error; every failure is folded into the outcome.
type StepExecutor struct {
	registry services.Registry
	client   *httpcall.Client
	cache    cache.Cache
	logger   logging.Logger
}

// NewStepExecutor creates an executor. cache may be nil, which
// disables per-step response caching.
func NewStepExecutor(registry services.Registry, client *httpcall.Client, responseCache cache.Cache, logger logging.Logger) *StepExecutor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &StepExecutor{
		registry: registry,
		client:   client,
		cache:    responseCache,
		logger:   logger,
	}
}

// Execute runs one step with the given prior-step outputs and caller
// input. outputs is empty in parallel mode.
func (e *StepExecutor) Execute(ctx context.Context, step *PipelineStep, index int, outputs map[string]interface{}, input map[string]interface{}) *StepOutcome {
	svc, err := e.registry.Get(step.Service)
	if err != nil {
		// ValidateSteps catches this before execution; kept as a
		// failure outcome so a raced registry change cannot panic a run.
		return failedOutcome(step, index, fmt.Sprintf("unknown service %q", step.Service))
	}

	params := e.mergeParams(step, outputs)
	headers := e.resolveHeaders(step, outputs)
	body := e.resolveBody(step, outputs)

	endpoint, query := fillEndpoint(step.Endpoint, params)
	url := strings.TrimRight(svc.BaseURL, "/") + endpoint

	cacheKey := ""
	ttl := parseTTL(step.CacheTTL)
	if e.cache != nil && ttl > 0 {
		cacheKey = buildCacheKey(step.ID, url, query)
		if cached, found := e.cache.Get(ctx, cacheKey); found {
			e.logger.Debug("step served from cache",
				logging.String("step_id", step.ID),
				logging.String("service", step.Service),
			)
			return e.outcomeFromData(step, index, cached, input)
		}
	}

	req := &httpcall.Request{
		Service:     step.Service,
		Method:      strings.ToUpper(step.Method),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		Auth:        svc.Auth,
		Timeout:     stepTimeout(step, svc),
		Format:      svc.ResponseFormat,
		Retry:       retryConfig(step, svc),
	}

	data, err := e.client.Do(ctx, req)
	if err != nil {
		e.logger.Warn("step failed",
			logging.String("step_id", step.ID),
			logging.String("service", step.Service),
			logging.Err(err),
		)
		return failedOutcome(step, index, err.Error())
	}

	if cacheKey != "" && !isErrorPayload(data) {
		if cacheErr := e.cache.Set(ctx, cacheKey, data, ttl); cacheErr != nil {
			e.logger.Warn("failed to cache step response",
				logging.String("step_id", step.ID),
				logging.Err(cacheErr),
			)
		}
	}

	return e.outcomeFromData(step, index, data, input)
}

// outcomeFromData folds raw response data into an outcome, applying
// the response transform on success.
func (e *StepExecutor) outcomeFromData(step *PipelineStep, index int, data interface{}, input map[string]interface{}) *StepOutcome {
	if isErrorPayload(data) {
		return &StepOutcome{
			StepID:  step.ID,
			Index:   index,
			Data:    data,
			Success: false,
			OnError: step.OnError,
		}
	}

	if step.Response != nil {
		data = transform.Apply(data, step.Response, input)
	}

	return &StepOutcome{
		StepID:  step.ID,
		Index:   index,
		Data:    data,
		Success: true,
		OnError: step.OnError,
	}
}

// mergeParams overlays declared params on defaults and resolves
// references against prior outputs.
func (e *StepExecutor) mergeParams(step *PipelineStep, outputs map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(step.DefaultParams)+len(step.Params))
	for k, v := range step.DefaultParams {
		merged[k] = v
	}
	for k, v := range step.Params {
		merged[k] = v
	}

	resolved, _ := ResolveReferences(merged, outputs).(map[string]interface{})
	if resolved == nil {
		return merged
	}
	return resolved
}

func (e *StepExecutor) resolveHeaders(step *PipelineStep, outputs map[string]interface{}) map[string]string {
	if len(step.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(step.Headers))
	for k, v := range step.Headers {
		headers[k] = ResolveReferenceString(v, outputs)
	}
	return headers
}

func (e *StepExecutor) resolveBody(step *PipelineStep, outputs map[string]interface{}) interface{} {
	if step.Body == nil {
		return nil
	}
	return ResolveReferences(step.Body, outputs)
}

// fillEndpoint substitutes {name} placeholders in the endpoint
// template from the resolved params. Consumed params leave the query
// so a path parameter is never sent twice.
func fillEndpoint(endpoint string, params map[string]interface{}) (string, map[string]string) {
	consumed := make(map[string]bool)

	filled := endpoint
	for key, value := range params {
		placeholder := "{" + key + "}"
		if strings.Contains(filled, placeholder) {
			filled = strings.ReplaceAll(filled, placeholder, utils.Stringify(value))
			consumed[key] = true
		}
	}

	query := make(map[string]string, len(params))
	for key, value := range params {
		if consumed[key] {
			continue
		}
		query[key] = utils.Stringify(value)
	}

	return filled, query
}

// stepTimeout prefers the step's own override, then the service
// default.
func stepTimeout(step *PipelineStep, svc *services.ServiceConfig) time.Duration {
	if step.Timeout != "" {
		if d, err := time.ParseDuration(step.Timeout); err == nil {
			return d
		}
	}
	return svc.GetTimeout(defaultStepTimeout)
}

// retryConfig builds the retry settings from the step override or the
// service's default policy. nil means the client's defaults apply.
func retryConfig(step *PipelineStep, svc *services.ServiceConfig) *utils.RetryConfig {
	policy := step.Retry
	if policy == nil {
		policy = svc.Retry
	}
	if policy == nil {
		return nil
	}

	cfg := utils.DefaultRetryConfig()
	if policy.MaxAttempts > 0 {
		cfg.MaxAttempts = policy.MaxAttempts
	}
	if policy.InitialDelay != "" {
		if d, err := time.ParseDuration(policy.InitialDelay); err == nil {
			cfg.InitialDelay = d
		}
	}
	if policy.MaxDelay != "" {
		if d, err := time.ParseDuration(policy.MaxDelay); err == nil {
			cfg.MaxDelay = d
		}
	}
	return &cfg
}

func parseTTL(ttl string) time.Duration {
	if ttl == "" {
		return 0
	}
	d, err := time.ParseDuration(ttl)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// buildCacheKey derives a stable key from the step identity and the
// fully resolved request.
func buildCacheKey(stepID, url string, query map[string]string) string {
	h := fnv.New64a()
	h.Write([]byte(url))
	if encoded, err := json.Marshal(query); err == nil {
		h.Write(encoded)
	}
	return fmt.Sprintf("step:%s:%x", stepID, h.Sum64())
}
