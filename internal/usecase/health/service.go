package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; search still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is down.
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

// Component names reported by Check.
const (
	ComponentDatabase     = "database"
	ComponentEmbedding    = "embedding"
	ComponentVectorSource = "vector_source"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db           DBPinger
	embedding    Checker
	vectorSource Checker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding Checker) *Service {
	return &Service{db: db, embedding: embedding}
}

// WithVectorSource adds a check for an external vector source.
func (s *Service) WithVectorSource(c Checker) *Service {
	s.vectorSource = c
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentDatabase] = result(s.db.Ping(ctx))
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx))
	}
	if s.vectorSource != nil {
		checks[ComponentVectorSource] = result(s.vectorSource.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
