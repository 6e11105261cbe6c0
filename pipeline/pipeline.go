// Package pipeline wires steps together, runs hooks, and handles retries.
package pipeline

import (
	"context"
	"time"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// Pipeline executes a sequence of Steps with hook and retry support.
// A Pipeline is itself a core.Step, so templates can be nested.
type Pipeline struct {
	steps      []core.Step
	hooks      []core.Hook
	maxRetries int
	retryDelay time.Duration
}

// New returns a Pipeline running steps in order.
func New(steps ...core.Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Use appends a step to the pipeline.  Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// WithRetry sets the maximum retry count and delay for transient failures.
func (p *Pipeline) WithRetry(maxRetries int, delay time.Duration) *Pipeline {
	p.maxRetries = maxRetries
	p.retryDelay = delay
	return p
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) Name() string { return "pipeline" }

// Execute runs the pipeline as a single step.
func (p *Pipeline) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	out, _, err := p.Run(ctx, img)
	return out, err
}

// Run executes the pipeline on img.  It returns the final ImageData and a map
// of per-step timing observations.
func (p *Pipeline) Run(ctx context.Context, img *core.ImageData) (*core.ImageData, map[string]time.Duration, error) {
	timings := make(map[string]time.Duration, len(p.steps))
	current := img

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, timings, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}

		result, elapsed, err := p.runStep(ctx, step, current)
		timings[step.Name()] += elapsed
		if err != nil {
			return nil, timings, err
		}
		current = result
	}
	return current, timings, nil
}

// runStep executes a single step, calling hooks and retrying transient errors.
// The reported duration covers the last attempt only.
func (p *Pipeline) runStep(ctx context.Context, step core.Step, img *core.ImageData) (*core.ImageData, time.Duration, error) {
	p.callHooksBefore(ctx, step.Name(), img)

	var (
		result  *core.ImageData
		elapsed time.Duration
		err     error
	)
	for attempt := 0; ; attempt++ {
		start := time.Now()
		result, err = step.Execute(ctx, img)
		elapsed = time.Since(start)

		if err == nil || !apperrors.IsRetryable(err) || attempt >= p.maxRetries {
			break
		}
		if werr := p.wait(ctx); werr != nil {
			err = apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), werr)
			break
		}
	}

	p.callHooksAfter(ctx, step.Name(), result, elapsed, err)
	return result, elapsed, err
}

func (p *Pipeline) wait(ctx context.Context) error {
	t := time.NewTimer(p.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pipeline) callHooksBefore(ctx context.Context, name string, img *core.ImageData) {
	for _, h := range p.hooks {
		h.BeforeStep(ctx, name, img)
	}
}

func (p *Pipeline) callHooksAfter(ctx context.Context, name string, img *core.ImageData, d time.Duration, err error) {
	for _, h := range p.hooks {
		h.AfterStep(ctx, name, img, d, err)
	}
}

// Clone returns a shallow copy of the pipeline so templates can be reused
// safely across goroutines.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		steps:      make([]core.Step, len(p.steps)),
		hooks:      make([]core.Hook, len(p.hooks)),
		maxRetries: p.maxRetries,
		retryDelay: p.retryDelay,
	}
	copy(cp.steps, p.steps)
	copy(cp.hooks, p.hooks)
	return cp
}

var _ core.Step = (*Pipeline)(nil)
