// Command rcved is the minimal local wiring for the RCVE engine: a
// directory-watched job queue. Each *.json file dropped into the inbox
// directory is decoded as a proto.RunInput, run through the engine, and its
// terminal Outcome is written as JSON into the outbox directory. A Prometheus
// endpoint exposes the engine's operational metrics alongside it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rcve/pkg/config"
	"rcve/pkg/contextmgr"
	"rcve/pkg/enrichment"
	"rcve/pkg/escalation"
	"rcve/pkg/eventlog"
	"rcve/pkg/executor"
	"rcve/pkg/limiter"
	"rcve/pkg/llm"
	"rcve/pkg/llmfactory"
	"rcve/pkg/logx"
	"rcve/pkg/metrics"
	"rcve/pkg/planner"
	"rcve/pkg/preflight"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
	"rcve/pkg/utils"
	"rcve/pkg/validator"
	"rcve/pkg/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to a YAML config file overriding the engine defaults")
		inboxDir    = flag.String("inbox", "./rcved/inbox", "Directory polled for incoming *.json request files")
		outboxDir   = flag.String("outbox", "./rcved/outbox", "Directory written with terminal outcome *.json files")
		logDir      = flag.String("logdir", "./rcved/logs", "Directory for daily-rotated JSONL observability spans")
		dbPath      = flag.String("db", "./rcved/escalations.db", "Path to the SQLite escalation archive")
		metricsAddr = flag.String("metrics-addr", ":9105", "Address the Prometheus /metrics endpoint listens on")
		pollEvery   = flag.Duration("poll-interval", 2*time.Second, "Interval between inbox directory scans")
		showVersion = flag.Bool("version", false, "Print the build version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rcved %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	log := logx.NewLogger("rcved")
	log.Info("rcved %s starting (commit %s)", version.Version, version.Commit)

	if err := run(*configPath, *inboxDir, *outboxDir, *logDir, *dbPath, *metricsAddr, *pollEvery, log); err != nil {
		log.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(configPath, inboxDir, outboxDir, logDir, dbPath, metricsAddr string, pollEvery time.Duration, log *logx.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := preflight.Validate(context.Background(), cfg); err != nil {
		return fmt.Errorf("preflight checks failed:\n%w", err)
	}

	for _, dir := range []string{inboxDir, outboxDir, logDir, filepath.Dir(dbPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	eng, archive, spans, err := wire(cfg, logDir, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()
	defer func() { _ = spans.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go serveMetrics(metricsAddr, log)

	log.Info("watching inbox %s, polling every %s", inboxDir, pollEvery)
	return watchInbox(ctx, inboxDir, outboxDir, eng, archive, log, pollEvery)
}

// wire builds the full Planner → Executor → Validator → Engine stack,
// sharing one pkg/limiter across both LLM roles so their combined call
// volume against the same underlying models is budget-enforced together.
func wire(cfg config.Config, logDir, dbPath string) (*enrichment.Engine, *escalation.Archive, *eventlog.Writer, error) {
	lim := limiter.NewLimiter(&cfg)

	plannerClient, err := llmfactory.NewClient(cfg.PlannerModel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build planner client: %w", err)
	}
	validatorClient, err := llmfactory.NewClient(cfg.ValidatorModel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build validator client: %w", err)
	}

	plannerTrimmer, err := contextmgr.NewTrimmerForModel(cfg.PlannerModel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build planner context trimmer: %w", err)
	}
	validatorTrimmer, err := contextmgr.NewTrimmerForModel(cfg.ValidatorModel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build validator context trimmer: %w", err)
	}

	p := planner.New(llm.NewLimitedClient(plannerClient, lim, cfg.PlannerModel.Name), cfg.PlannerModel, plannerTrimmer)
	v := validator.New(llm.NewLimitedClient(validatorClient, lim, cfg.ValidatorModel.Name), cfg.ValidatorModel, cfg.ConfidenceThresholds, validatorTrimmer)
	e := executor.New()

	recorder := metrics.NewRecorder(tools.Names())

	spans, err := eventlog.NewWriter(logDir, 24)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open event log: %w", err)
	}

	archive, err := escalation.NewArchive(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open escalation archive: %w", err)
	}

	deps := tools.Deps{SearchProvider: tools.NewDuckDuckGoProvider()}

	return enrichment.New(p, e, v, cfg, deps, recorder, spans), archive, spans, nil
}

func serveMetrics(addr string, log *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // internal metrics endpoint, no external exposure expected
		log.Error("metrics server exited: %v", err)
	}
}

// maxConcurrentJobs bounds how many Engine.Run instances run at once from
// this entrypoint. Each job still goes through pkg/limiter's own per-model
// ceiling; this bound just keeps the daemon from spawning an unbounded
// number of goroutines when the inbox fills up.
const maxConcurrentJobs = 4

// jobPool bounds in-flight processOne goroutines across ticks and lets
// watchInbox drain outstanding work before shutting down.
type jobPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newJobPool(size int) *jobPool {
	return &jobPool{sem: make(chan struct{}, size)}
}

func (p *jobPool) run(fn func()) {
	p.sem <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		fn()
	}()
}

// watchInbox polls inboxDir for *.json request files, running each one
// through the engine concurrently (bounded by maxConcurrentJobs) and
// archiving non-complete outcomes, until ctx is cancelled.
func watchInbox(ctx context.Context, inboxDir, outboxDir string, eng *enrichment.Engine, archive *escalation.Archive, log *logx.Logger, pollEvery time.Duration) error {
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	pool := newJobPool(maxConcurrentJobs)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down, waiting for in-flight jobs")
			pool.wg.Wait()
			return nil
		case <-ticker.C:
			if err := processInbox(ctx, inboxDir, outboxDir, eng, archive, log, pool); err != nil {
				log.Error("inbox scan failed: %v", err)
			}
		}
	}
}

// processInbox claims every pending job file synchronously (read its bytes
// and remove it from the inbox so a later tick never picks it up again),
// then hands each one to the job pool to run concurrently against the
// engine. Multiple requests this way run in parallel as independent
// instances, each under its own Engine.Run and sharing the process-wide
// pkg/limiter ceiling.
func processInbox(ctx context.Context, inboxDir, outboxDir string, eng *enrichment.Engine, archive *escalation.Archive, log *logx.Logger, pool *jobPool) error {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(inboxDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("reading job %s: %v", path, err)
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warn("removing claimed job %s: %v", path, err)
		}

		pool.run(func() {
			if err := processOne(ctx, path, data, outboxDir, eng, archive, log); err != nil {
				log.Error("processing %s: %v", path, err)
			}
		})
	}
	return nil
}

func processOne(ctx context.Context, path string, data []byte, outboxDir string, eng *enrichment.Engine, archive *escalation.Archive, log *logx.Logger) error {
	var in proto.RunInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode job file: %w", err)
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}

	log.Info("processing request %s", in.RequestID)
	outcome, err := eng.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("engine run: %w", err)
	}

	if outcome.Escalation != nil {
		rec := escalation.BuildRecord(in.RawRequest, *outcome.Escalation, time.Now())
		if err := archive.Save(ctx, rec); err != nil {
			log.Error("archiving escalation %s: %v", in.RequestID, err)
		}
	}

	return writeOutcome(outboxDir, in.RequestID, outcome)
}

func writeOutcome(outboxDir, requestID string, outcome enrichment.Outcome) error {
	var payload any
	switch {
	case outcome.Completed != nil:
		payload = outcome.Completed
	case outcome.Escalation != nil:
		payload = outcome.Escalation
	default:
		return fmt.Errorf("engine returned neither a completed nor an escalated outcome for %s", requestID)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	outPath := filepath.Join(outboxDir, utils.SanitizeIdentifier(requestID)+".json")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write outcome file: %w", err)
	}
	return nil
}
