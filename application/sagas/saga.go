package sagas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SagaStep represents a single step in a saga
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
	// Retryable decides whether a failed attempt is worth repeating. Nil retries
	// every error.
	Retryable func(error) bool
}

// SagaState represents the current state of a saga execution
type SagaState string

const (
	SagaStatePending      SagaState = "PENDING"
	SagaStateRunning      SagaState = "RUNNING"
	SagaStateCompleted    SagaState = "COMPLETED"
	SagaStateFailed       SagaState = "FAILED"
	SagaStateCompensating SagaState = "COMPENSATING"
	SagaStateCompensated  SagaState = "COMPENSATED"
)

// Saga orchestrates a series of steps with compensation logic
type Saga struct {
	id            string
	name          string
	steps         []SagaStep
	compensations []func(ctx context.Context) error
	state         SagaState
	currentStep   int
	logger        *zap.Logger
	metadata      map[string]interface{}
}

// NewSaga creates a new saga instance
func NewSaga(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:          uuid.NewString(),
		name:        name,
		steps:       make([]SagaStep, 0),
		state:       SagaStatePending,
		currentStep: 0,
		logger:      logger,
		metadata:    make(map[string]interface{}),
	}
}

// AddStep adds a step to the saga
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// SetMetadata sets metadata for the saga
func (s *Saga) SetMetadata(key string, value interface{}) *Saga {
	s.metadata[key] = value
	return s
}

// Execute runs the saga. Each step receives the previous step's result. When a step
// fails, completed steps are compensated in reverse order and the step's error is
// returned wrapped.
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.state = SagaStateRunning
	s.compensations = make([]func(ctx context.Context) error, 0, len(s.steps))
	s.logger.Debug("Starting saga execution",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Int("total_steps", len(s.steps)),
		zap.Any("metadata", s.metadata),
	)

	data := initialData
	for i, step := range s.steps {
		s.currentStep = i

		result, err := s.executeStepWithRetry(ctx, step, data)
		if err != nil {
			s.state = SagaStateFailed
			s.logger.Warn("Saga step failed",
				zap.String("saga_id", s.id),
				zap.String("saga_name", s.name),
				zap.String("step_name", step.Name),
				zap.Error(err),
			)

			if compensateErr := s.compensate(ctx); compensateErr != nil {
				s.state = SagaStateFailed
				s.logger.Error("Saga compensation failed",
					zap.String("saga_id", s.id),
					zap.Error(compensateErr),
				)
				return nil, fmt.Errorf("saga %s failed at step %s and compensation failed: %w", s.name, step.Name, err)
			}

			s.state = SagaStateCompensated
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result

		// one slot per completed step keeps compensation aligned with step order
		var compensation func(ctx context.Context) error
		if step.Compensate != nil {
			stepData, compensate := data, step.Compensate
			compensation = func(ctx context.Context) error {
				return compensate(ctx, stepData)
			}
		}
		s.compensations = append(s.compensations, compensation)
	}

	s.state = SagaStateCompleted
	s.logger.Debug("Saga completed successfully",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Int("completed_steps", len(s.steps)),
	)

	return data, nil
}

// executeStepWithRetry executes a step with retry logic
func (s *Saga) executeStepWithRetry(ctx context.Context, step SagaStep, data interface{}) (interface{}, error) {
	maxRetries := step.MaxRetries
	if maxRetries == 0 {
		maxRetries = 1 // At least try once
	}

	retryDelay := step.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if step.Retryable != nil && !step.Retryable(err) {
			return nil, err
		}
		if attempt+1 < maxRetries {
			s.logger.Debug("Retrying saga step",
				zap.String("saga_id", s.id),
				zap.String("step_name", step.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
	}

	if maxRetries == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("step %s failed after %d attempts: %w", step.Name, maxRetries, lastErr)
}

// compensate runs compensation logic in reverse order. Every compensation runs even
// when an earlier one fails.
func (s *Saga) compensate(ctx context.Context) error {
	s.state = SagaStateCompensating

	var errs []error
	for i := len(s.compensations) - 1; i >= 0; i-- {
		if s.compensations[i] == nil {
			continue
		}
		if err := s.compensations[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensating %s: %w", s.steps[i].Name, err))
		}
	}

	return errors.Join(errs...)
}

// GetState returns the current state of the saga
func (s *Saga) GetState() SagaState {
	return s.state
}

// GetID returns the saga ID
func (s *Saga) GetID() string {
	return s.id
}

// GetCurrentStep returns the current step index
func (s *Saga) GetCurrentStep() int {
	return s.currentStep
}

// SagaBuilder provides a fluent interface for building sagas
type SagaBuilder struct {
	saga *Saga
}

// NewSagaBuilder creates a new saga builder
func NewSagaBuilder(name string, logger *zap.Logger) *SagaBuilder {
	return &SagaBuilder{
		saga: NewSaga(name, logger),
	}
}

// WithStep adds a step to the saga
func (b *SagaBuilder) WithStep(name string, execute func(context.Context, interface{}) (interface{}, error)) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:    name,
		Execute: execute,
	})
	return b
}

// WithCompensableStep adds a step with compensation logic
func (b *SagaBuilder) WithCompensableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	compensate func(context.Context, interface{}) error,
) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:       name,
		Execute:    execute,
		Compensate: compensate,
	})
	return b
}

// WithRetryableStep adds a step that is attempted up to maxRetries times while
// retryable accepts the error. A nil retryable retries everything.
func (b *SagaBuilder) WithRetryableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	maxRetries int,
	retryDelay time.Duration,
	retryable func(error) bool,
) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:       name,
		Execute:    execute,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		Retryable:  retryable,
	})
	return b
}

// WithMetadata adds metadata to the saga
func (b *SagaBuilder) WithMetadata(key string, value interface{}) *SagaBuilder {
	b.saga.SetMetadata(key, value)
	return b
}

// Build returns the constructed saga
func (b *SagaBuilder) Build() *Saga {
	return b.saga
}
