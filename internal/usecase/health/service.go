// Package health aggregates component checks, host resource gauges, and
// question-answering performance counters. A health check never fails the
// request; trouble shows up in the status field instead.
package health

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/domain"
	"github.com/bookinsight/bookinsight/internal/usecase/qa"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// SystemGauges holds host resource usage percentages. Negative values
// mean the gauge could not be read.
type SystemGauges struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

// Report aggregates health check results.
type Report struct {
	Status      Status                 `json:"status"`
	Checks      map[string]CheckResult `json:"components"`
	System      SystemGauges           `json:"system"`
	Performance qa.PerfSnapshot        `json:"performance"`
}

// Service coordinates health checks.
type Service struct {
	dataset   *domain.Dataset
	index     IndexInfo
	cache     Pinger
	embedding ProviderChecker
	perf      PerfReader
	logger    *zap.Logger
}

// New creates a Service. cache and embedding can be nil when those
// components are not configured.
func New(ds *domain.Dataset, idx IndexInfo, cache Pinger, embedding ProviderChecker, perf PerfReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dataset:   ds,
		index:     idx,
		cache:     cache,
		embedding: embedding,
		perf:      perf,
		logger:    logger,
	}
}

// Check runs health checks against all components and samples host gauges.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.dataset != nil && s.dataset.Len() > 0 {
		checks["dataset"] = CheckOK
	} else {
		checks["dataset"] = CheckError
	}

	if s.index != nil && s.index.Len() > 0 {
		checks["index"] = CheckOK
	} else {
		checks["index"] = CheckError
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("cache health check failed", zap.Error(err))
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			s.logger.Warn("embedding health check failed", zap.Error(err))
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	system, ok := s.systemGauges(ctx)
	if ok {
		checks["system"] = CheckOK
	} else {
		checks["system"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	report := Report{Status: status, Checks: checks, System: system}
	if s.perf != nil {
		report.Performance = s.perf.Snapshot()
	}
	return report
}

func (s *Service) systemGauges(ctx context.Context) (SystemGauges, bool) {
	g := SystemGauges{CPUPercent: -1, MemoryPercent: -1, DiskPercent: -1}
	ok := true

	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		g.CPUPercent = pcts[0]
	} else {
		s.logger.Warn("cpu gauge unavailable", zap.Error(err))
		ok = false
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		g.MemoryPercent = vm.UsedPercent
	} else {
		s.logger.Warn("memory gauge unavailable", zap.Error(err))
		ok = false
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		g.DiskPercent = du.UsedPercent
	} else {
		s.logger.Warn("disk gauge unavailable", zap.Error(err))
		ok = false
	}

	return g, ok
}
