// Package metrics registers and records the RCVE engine's Prometheus
// surface: exactly the per-request metric names the Component Design's
// observability section names. Grounded on the teacher's
// PrometheusRecorder (pkg/agent/middleware/metrics/prometheus.go), adapted
// from per-LLM-request counters to per-engine-run gauges/counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rcve/pkg/proto"
)

// Recorder registers every metric the engine emits exactly once per
// process and records all of them through a single ObserveRun call per
// finished run.
type Recorder struct {
	iterations      *prometheus.HistogramVec
	success         *prometheus.CounterVec
	stopReason      *prometheus.CounterVec
	totalTokens     *prometheus.HistogramVec
	answerRate      *prometheus.HistogramVec
	toolCalls       map[string]prometheus.Counter
	finalConfidence *prometheus.HistogramVec
}

// NewRecorder registers the RCVE metric family with the default Prometheus
// registry via promauto, the same way the teacher wires its recorder.
// toolNames names every tool a tool_<name>_calls counter should exist for
// (normally tools.Names()) — each gets its own literally-named counter
// rather than one vector, matching the Observability surface's exact
// per-tool metric name.
func NewRecorder(toolNames []string) *Recorder {
	toolCalls := make(map[string]prometheus.Counter, len(toolNames))
	for _, name := range toolNames {
		toolCalls[name] = promauto.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("tool_%s_calls", name),
			Help: fmt.Sprintf("Total calls made to the %s tool.", name),
		})
	}

	return &Recorder{
		toolCalls: toolCalls,
		iterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrichment_iterations",
				Help:    "Number of enrichment iterations run per request.",
				Buckets: []float64{0, 1, 2, 3},
			},
			[]string{"category"},
		),
		success: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrichment_success",
				Help: "Count of runs by whether they reached a complete outcome.",
			},
			[]string{"category", "success"},
		),
		stopReason: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrichment_stop_reason",
				Help: "Count of runs by terminal stop reason.",
			},
			[]string{"stop_reason"},
		),
		totalTokens: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrichment_total_tokens",
				Help:    "Total tokens consumed per request.",
				Buckets: prometheus.ExponentialBuckets(100, 4, 8),
			},
			[]string{"category"},
		),
		answerRate: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrichment_answer_rate",
				Help:    "Fraction of initially-missing questions resolved by enrichment.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"category"},
		),
		finalConfidence: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "final_enrichment_confidence",
				Help:    "Mean confidence across dynamic_context entries at terminal stop.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"category"},
		),
	}
}

// Outcome is the summary of one finished run, everything ObserveRun needs
// to record the full metric family in one call.
type Outcome struct {
	Category        proto.Category
	Iterations      int
	Success         bool
	StopReason      proto.StopReason
	TokensUsed      int
	AnswerRate      float64
	FinalConfidence float64
	ToolCalls       map[string]int
}

// ObserveRun records every metric for one finished request.
func (r *Recorder) ObserveRun(o Outcome) {
	category := string(o.Category)

	r.iterations.WithLabelValues(category).Observe(float64(o.Iterations))
	r.success.WithLabelValues(category, successLabel(o.Success)).Inc()
	if o.StopReason != "" {
		r.stopReason.WithLabelValues(string(o.StopReason)).Inc()
	}
	r.totalTokens.WithLabelValues(category).Observe(float64(o.TokensUsed))
	r.answerRate.WithLabelValues(category).Observe(o.AnswerRate)
	r.finalConfidence.WithLabelValues(category).Observe(o.FinalConfidence)

	for tool, calls := range o.ToolCalls {
		if counter, ok := r.toolCalls[tool]; ok {
			counter.Add(float64(calls))
		}
	}
}

func successLabel(success bool) string {
	if success {
		return "true"
	}
	return "false"
}

// AnswerRate computes (questions missing at iteration 0) minus (questions
// missing at final), divided by questions at iteration 0, per the
// Observability surface's definition. Zero initial questions is treated as
// a perfect answer rate — there was nothing to resolve.
func AnswerRate(missingAtStart, missingAtEnd int) float64 {
	if missingAtStart == 0 {
		return 1
	}
	resolved := missingAtStart - missingAtEnd
	if resolved < 0 {
		resolved = 0
	}
	return float64(resolved) / float64(missingAtStart)
}

// FinalConfidence is the mean of every dynamic_context entry's confidence,
// zero when the context is empty.
func FinalConfidence(ctx proto.DynamicContext) float64 {
	if len(ctx) == 0 {
		return 0
	}
	var sum float64
	for _, obs := range ctx {
		sum += obs.Confidence
	}
	return sum / float64(len(ctx))
}
