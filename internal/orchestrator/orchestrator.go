package orchestrator

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"service-orchestrator/internal/common/logging"
)

// maxParallelWorkers caps the worker pool for parallel pipelines.
const maxParallelWorkers = 5

// Orchestrator runs whole pipelines.
type Orchestrator struct {
	executor *StepExecutor
	logger   logging.Logger
}

// New creates an orchestrator around a step executor.
func New(executor *StepExecutor, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Orchestrator{
		executor: executor,
		logger:   logger,
	}
}

// Run executes a pipeline and merges the outcomes. Only a malformed
// pipeline definition returns an error; individual step failures are
// folded into the merged value per the on_error policies.
func (o *Orchestrator) Run(ctx context.Context, steps []*PipelineStep, merge *MergeConfig, input map[string]interface{}) (interface{}, error) {
	if err := ValidateSteps(steps, o.executor.registry); err != nil {
		return nil, err
	}
	if err := ValidateMerge(merge); err != nil {
		return nil, err
	}

	// References force sequential execution regardless of the declared
	// mode; a referencing step needs its predecessors to have run.
	sequential := (merge != nil && merge.Mode == MergeSequential) || HasReferences(steps)

	start := time.Now()

	var outcomes []*StepOutcome
	if sequential {
		outcomes = o.runSequential(ctx, steps, input)
	} else {
		outcomes = o.runParallel(ctx, steps, input)
		if merge != nil && merge.PreserveDeclaredOrder {
			sort.SliceStable(outcomes, func(i, j int) bool {
				return outcomes[i].Index < outcomes[j].Index
			})
		}
	}

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
	}
	o.logger.Info("pipeline completed",
		logging.Bool("sequential", sequential),
		logging.Int("steps", len(steps)),
		logging.Int("succeeded", succeeded),
		logging.Duration("duration", time.Since(start)),
	)

	return Merge(outcomes, merge, input), nil
}

// runSequential executes steps in declared order, accumulating
// successful outputs for reference resolution. A failed step with
// on_error stop halts the run.
func (o *Orchestrator) runSequential(ctx context.Context, steps []*PipelineStep, input map[string]interface{}) []*StepOutcome {
	outputs := make(map[string]interface{}, len(steps))
	outcomes := make([]*StepOutcome, 0, len(steps))

	for i, step := range steps {
		outcome := o.executor.Execute(ctx, step, i, outputs, input)
		outcomes = append(outcomes, outcome)

		if outcome.Success {
			outputs[step.ID] = outcome.Data
			continue
		}

		if step.StopsOnError() {
			o.logger.Warn("pipeline halted by failed step",
				logging.String("step_id", step.ID),
			)
			break
		}
	}

	return outcomes
}

// runParallel submits every step to a bounded worker pool and collects
// outcomes as they complete. Steps observe no prior outputs; the
// completion order is whatever the services' latencies produce.
func (o *Orchestrator) runParallel(ctx context.Context, steps []*PipelineStep, input map[string]interface{}) []*StepOutcome {
	type work struct {
		index int
		step  *PipelineStep
	}

	workers := len(steps)
	if workers > maxParallelWorkers {
		workers = maxParallelWorkers
	}

	workCh := make(chan work, len(steps))
	resultCh := make(chan *StepOutcome, len(steps))

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for item := range workCh {
				resultCh <- o.executor.Execute(ctx, item.step, item.index, nil, input)
			}
			return nil
		})
	}

	for i, step := range steps {
		workCh <- work{index: i, step: step}
	}
	close(workCh)

	go func() {
		_ = group.Wait()
		close(resultCh)
	}()

	outcomes := make([]*StepOutcome, 0, len(steps))
	for outcome := range resultCh {
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}
