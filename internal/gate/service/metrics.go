package service

// Metrics receives service events. internal/gate/metrics implements it with
// Prometheus collectors.
type Metrics interface {
	GateDecision(class, outcome string)
	RefreshAttempt(outcome string, shared bool)
	ManifestLookup(result string)
}

type nopMetrics struct{}

func (nopMetrics) GateDecision(string, string) {}
func (nopMetrics) RefreshAttempt(string, bool) {}
func (nopMetrics) ManifestLookup(string)       {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
