package health

import (
	"context"

	"github.com/bookinsight/bookinsight/internal/usecase/qa"
)

// Pinger checks cache store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks external model provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexInfo reports the size of the embedding index.
type IndexInfo interface {
	Len() int
}

// PerfReader exposes the orchestrator's performance accumulator.
type PerfReader interface {
	Snapshot() qa.PerfSnapshot
}
