// Package health reports whether the service dependencies are reachable.
package health

import (
	"context"
	"database/sql"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Broker is implemented by the event publisher.
type Broker interface {
	Connected() bool
}

// Status is the result of a health check.
type Status struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the health of one dependency.
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms"`
}

// Checker probes the database and, when configured, the message broker.
type Checker struct {
	db     *sql.DB
	broker Broker
}

// NewChecker creates a Checker. broker may be nil.
func NewChecker(db *sql.DB, broker Broker) *Checker {
	return &Checker{db: db, broker: broker}
}

// Check probes every dependency. A failing database makes the service
// unhealthy; a disconnected broker only degrades it.
func (h *Checker) Check(ctx context.Context) Status {
	status := Status{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.db != nil {
		db := h.checkDatabase(ctx)
		status.Dependencies["database"] = db
		if db.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
	}

	if h.broker != nil {
		broker := DependencyStatus{Status: StatusHealthy}
		if !h.broker.Connected() {
			broker.Status = StatusUnhealthy
			broker.Message = "not connected"
			if status.Status != StatusUnhealthy {
				status.Status = StatusDegraded
			}
		}
		status.Dependencies["rabbitmq"] = broker
	}

	return status
}

func (h *Checker) checkDatabase(ctx context.Context) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{Status: StatusHealthy}

	err := h.db.PingContext(ctx)
	if err == nil {
		var one int
		err = h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
	status.Latency = time.Since(start).Milliseconds()

	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	return status
}
