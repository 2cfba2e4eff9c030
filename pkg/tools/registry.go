// Package tools implements the Tool Registry: the nine context-gathering
// tools available to the Executor, and the per-request registry that wraps
// them with budget enforcement and timeouts.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"rcve/pkg/config"
	"rcve/pkg/proto"
)

// Factory builds one Tool instance given the shared dependencies every tool
// body may need (HTTP client, search provider, ...). Factories are
// registered once at process start and never vary per request; only the
// budget bookkeeping in Registry is per-request.
type Factory func(deps Deps) (Tool, error)

// Deps bundles the dependencies tool factories may draw on. Tools that don't
// need a dependency simply ignore it.
type Deps struct {
	SearchProvider SearchProvider
}

type toolDescriptor struct {
	factory Factory
}

var (
	catalogMu sync.RWMutex
	catalog   = make(map[string]toolDescriptor)
	sealed    bool
)

// register adds a tool factory to the package catalog. Called only from
// init() in the individual tool files; panics if called after Seal.
func register(name string, factory Factory) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	if sealed {
		panic(fmt.Sprintf("tool catalog sealed - cannot register tool %q", name))
	}
	catalog[name] = toolDescriptor{factory: factory}
}

// Seal freezes the catalog against further registration. Idempotent.
func Seal() {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	sealed = true
}

// Names returns every tool name in the catalog, sorted for determinism.
func Names() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sortStrings(out)
	return out
}

// sortStrings is a tiny insertion sort; the catalog has nine entries.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Registry is the per-request, sealed view of the tool catalog: it holds
// one lazily-instantiated Tool per name plus the ToolUsage budget ledger for
// this request only. A Registry must not be shared across requests.
//
//nolint:govet // logical field grouping preferred over memory layout
type Registry struct {
	deps      Deps
	instances map[string]Tool
	usage     proto.ToolUsage
	timeout   time.Duration
	mu        sync.Mutex
}

// NewRegistry builds a per-request registry seeded with the given tool
// budgets and call timeout. Seals the package catalog on first use.
func NewRegistry(budgets map[string]int, timeoutSeconds int) *Registry {
	Seal()

	usage := make(proto.ToolUsage, len(budgets))
	for name, max := range budgets {
		usage[name] = proto.ToolUsageEntry{CallsMade: 0, MaxCalls: max}
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultToolTimeoutSeconds) * time.Second
	}

	return &Registry{
		instances: make(map[string]Tool),
		usage:     usage,
		timeout:   timeout,
	}
}

// WithDeps attaches shared dependencies (search provider, ...) before any
// tool is instantiated. Returns the same Registry for chaining.
func (r *Registry) WithDeps(deps Deps) *Registry {
	r.deps = deps
	return r
}

// Usage returns a copy of the current per-tool budget ledger.
func (r *Registry) Usage() proto.ToolUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage.Clone()
}

// Available reports whether name still has budget remaining.
func (r *Registry) Available(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.usage[name]
	if !ok {
		return false
	}
	return entry.CallsMade < entry.MaxCalls
}

func (r *Registry) get(name string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool, ok := r.instances[name]; ok {
		return tool, nil
	}

	catalogMu.RLock()
	desc, exists := catalog[name]
	catalogMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("tool %q not registered", name)
	}

	tool, err := desc.factory(r.deps)
	if err != nil {
		return nil, fmt.Errorf("create tool %q: %w", name, err)
	}
	r.instances[name] = tool
	return tool, nil
}

// reserve decrements the tool's remaining budget, failing closed if none is
// left. The reservation is only restored by release on a timeout or when
// Exec rejects its arguments — a successful or failed-but-completed call
// keeps the spend.
func (r *Registry) reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.usage[name]
	if !ok {
		return fmt.Errorf("tool %q has no budget configured", name)
	}
	if entry.CallsMade >= entry.MaxCalls {
		return fmt.Errorf("tool %q budget exhausted (%d/%d)", name, entry.CallsMade, entry.MaxCalls)
	}
	entry.CallsMade++
	r.usage[name] = entry
	return nil
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.usage[name]
	if !ok || entry.CallsMade <= 0 {
		return
	}
	entry.CallsMade--
	r.usage[name] = entry
}

// Call runs one tool under this request's budget and deadline, returning the
// uniform proto.ToolResult envelope. The budget is spent before the call
// starts; it is refunded only if the call is aborted by the per-call
// deadline or Exec returns an error before doing any work (a missing or
// mistyped argument), never on a tool-reported error (a failed call still
// counts against budget — it consumed real time and, often, real API quota).
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (proto.ToolResult, error) {
	if err := r.reserve(name); err != nil {
		return proto.ToolResult{
			OK:    false,
			Error: &proto.ToolResultError{Kind: proto.ToolErrorBudget, Message: err.Error()},
		}, nil
	}

	tool, err := r.get(name)
	if err != nil {
		return proto.ToolResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, execErr := tool.Exec(callCtx, args)
	if execErr != nil {
		if callCtx.Err() != nil {
			r.release(name)
			return proto.ToolResult{
				OK:    false,
				Error: &proto.ToolResultError{Kind: proto.ToolErrorTimeout, Message: execErr.Error()},
			}, nil
		}
		r.release(name)
		return proto.ToolResult{
			OK:    false,
			Error: &proto.ToolResultError{Kind: proto.ToolErrorInvalidInput, Message: execErr.Error()},
		}, nil
	}

	return decodeResult(res)
}

// decodeResult unmarshals a tool's raw JSON ExecResult into the uniform
// envelope. Every tool body in this package marshals exactly this shape.
func decodeResult(res *ExecResult) (proto.ToolResult, error) {
	var payload struct {
		Success         bool               `json:"success"`
		Error           string             `json:"error,omitempty"`
		Observations    map[string]any     `json:"observations,omitempty"`
		ConfidenceByKey map[string]float64 `json:"confidence_by_key,omitempty"`
		EstTokens       int                `json:"est_tokens"`
	}
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		return proto.ToolResult{}, fmt.Errorf("decode tool result: %w", err)
	}

	if !payload.Success {
		return proto.ToolResult{
			OK:    false,
			Error: &proto.ToolResultError{Kind: proto.ToolErrorHTTP, Message: payload.Error},
		}, nil
	}

	return proto.ToolResult{
		OK:              true,
		Observations:    payload.Observations,
		ConfidenceByKey: payload.ConfidenceByKey,
		EstTokens:       payload.EstTokens,
	}, nil
}
