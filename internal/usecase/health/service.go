package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the response cache is down; searches still reach Solr.
	Degraded Status = "degraded"
	// Unhealthy indicates Solr is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentSolr  = "solr"
	ComponentCache = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	solr  Pinger
	cache Pinger
}

// New creates a Service. cache can be nil.
func New(solr, cache Pinger) *Service {
	return &Service{solr: solr, cache: cache}
}

// Check pings Solr and, when configured, the response cache.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentSolr: ping(ctx, ComponentSolr, s.solr)}
	if s.cache != nil {
		checks[ComponentCache] = ping(ctx, ComponentCache, s.cache)
	}

	status := Healthy
	switch {
	case checks[ComponentSolr] == CheckError:
		status = Unhealthy
	case checks[ComponentCache] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, name string, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check failed",
			zap.String("component", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
