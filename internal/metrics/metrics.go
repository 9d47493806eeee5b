// Package metrics holds the Prometheus collectors shared by the compiler, synthesizer and validator.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeInvalid   = "invalid"
	OutcomeMalformed = "malformed"
)

// Recorder groups the flowkit collectors.
type Recorder struct {
	gatherer prometheus.Gatherer

	toolsCompiled *prometheus.CounterVec
	invocations   *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	validations   *prometheus.CounterVec
	models        prometheus.Counter
}

// New creates a Recorder registered on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r, _ := NewWithRegistry(reg, reg)
	return r
}

// NewWithRegistry registers the collectors on reg and exposes them through g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) (*Recorder, error) {
	r := &Recorder{
		gatherer: g,
		toolsCompiled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowkit_tools_compiled_total",
				Help: "Total number of tools compiled from flow edges",
			},
			[]string{"kind"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowkit_tool_invocations_total",
				Help: "Total number of tool invocations",
			},
			[]string{"kind", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "flowkit_tool_duration_seconds",
				Help: "Duration of tool callbacks",
			},
			[]string{"kind"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowkit_validations_total",
				Help: "Total number of data validations",
			},
			[]string{"outcome"},
		),
		models: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flowkit_models_synthesized_total",
				Help: "Total number of unified models synthesized",
			},
		),
	}

	for _, c := range []prometheus.Collector{r.toolsCompiled, r.invocations, r.toolDuration, r.validations, r.models} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ToolCompiled counts one compiled tool of the given kind.
func (r *Recorder) ToolCompiled(kind string) {
	if r == nil {
		return
	}
	r.toolsCompiled.WithLabelValues(kind).Inc()
}

// ToolInvoked records one tool invocation.
func (r *Recorder) ToolInvoked(kind string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.invocations.WithLabelValues(kind, outcome).Inc()
	r.toolDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Validated counts one validation with its outcome.
func (r *Recorder) Validated(outcome string) {
	if r == nil {
		return
	}
	r.validations.WithLabelValues(outcome).Inc()
}

// ModelSynthesized counts one synthesized model.
func (r *Recorder) ModelSynthesized() {
	if r == nil {
		return
	}
	r.models.Inc()
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.gatherer
}
