package httpcall

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"service-orchestrator/internal/common/errors"
	"service-orchestrator/internal/common/logging"
)

// breakerManager keeps one circuit breaker per backend service so a
// misbehaving service cannot burn worker time for every pipeline run.
type breakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
	logger   logging.Logger
}

func newBreakerManager(logger logging.Logger) *breakerManager {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &breakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   logger,
	}
}

func (m *breakerManager) get(service string) *gobreaker.CircuitBreaker {
	m.mu.RLock()
	if cb, exists := m.breakers[service]; exists {
		m.mu.RUnlock()
		return cb
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, exists := m.breakers[service]; exists {
		return cb
	}

	logger := m.logger
	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				logging.String("service", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}

			// Client-side errors (bad request shape, 4xx responses) say
			// nothing about the service's health.
			switch errors.GetType(err) {
			case errors.ErrTypeValidation, errors.ErrTypeNotFound, errors.ErrTypeConfig:
				return true
			}

			return false
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	m.breakers[service] = cb
	return cb
}
