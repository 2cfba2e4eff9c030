package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// ToolUsageSnapshot is a point-in-time read of each tool's call counter,
// for the admin dashboard's "what is the engine actually calling" view —
// distinct from pkg/escalation.Archive, which answers "what happened on
// this one escalated request" from durable per-request storage rather
// than aggregate counters.
type ToolUsageSnapshot struct {
	Tool  string
	Calls int64
}

// QueryService queries the running engine's own Prometheus registry
// (scraped by a local or sidecar Prometheus) for aggregate dashboard
// reads. Grounded on the teacher's QueryService (pkg/metrics/query.go),
// adapted from per-story token/cost lookups to per-tool and per-stop-
// reason aggregate counters, since RCVE's Prometheus series carry no
// per-request label — per-request detail lives in pkg/escalation.Archive
// instead.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service pointed at a
// Prometheus server scraping the engine's /metrics endpoint.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// ToolUsage returns the current total call count for every tool_<name>_calls
// series Prometheus knows about.
func (q *QueryService) ToolUsage(ctx context.Context) ([]ToolUsageSnapshot, error) {
	result, _, err := q.queryAPI.Query(ctx, `{__name__=~"tool_.+_calls"}`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query tool usage: %w", err)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, nil
	}

	snapshots := make([]ToolUsageSnapshot, 0, len(vector))
	for _, sample := range vector {
		name := string(sample.Metric["__name__"])
		snapshots = append(snapshots, ToolUsageSnapshot{Tool: name, Calls: int64(sample.Value)})
	}
	return snapshots, nil
}

// StopReasonCounts returns the current total count for each terminal stop
// reason the engine has recorded, labeled exactly as enrichment_stop_reason
// emits them.
func (q *QueryService) StopReasonCounts(ctx context.Context) (map[string]int64, error) {
	result, _, err := q.queryAPI.Query(ctx, `enrichment_stop_reason`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query stop reasons: %w", err)
	}

	counts := make(map[string]int64)
	vector, ok := result.(model.Vector)
	if !ok {
		return counts, nil
	}
	for _, sample := range vector {
		reason := string(sample.Metric["stop_reason"])
		counts[reason] += int64(sample.Value)
	}
	return counts, nil
}

// AnswerRateP50 returns the median observed answer rate across every
// category bucket recorded by enrichment_answer_rate, using Prometheus's
// histogram_quantile over the 24-hour rate window the admin dashboard
// refreshes on.
func (q *QueryService) AnswerRateP50(ctx context.Context) (float64, error) {
	query := `histogram_quantile(0.5, sum(rate(enrichment_answer_rate_bucket[24h])) by (le))`
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to query answer rate quantile: %w", err)
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, nil
	}
	return float64(vector[0].Value), nil
}
