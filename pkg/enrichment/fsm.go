package enrichment

// Phase is one of the Loop Driver's run states. Grounded on the teacher's
// architectTransitions pattern (pkg/architect/architect_fsm.go), adapted to
// a lightweight value type since one EnrichmentState is a single-pass fold
// for one request, not a persisted multi-day agent.
type Phase string

const (
	PhaseSeeding    Phase = "SEEDING"
	PhaseValidating Phase = "VALIDATING"
	PhaseEnriching  Phase = "ENRICHING"
	PhaseArchitect  Phase = "ARCHITECT"
	PhaseEscalated  Phase = "ESCALATED"
)

// transitions is the canonical state transition map for the Loop Driver,
// the same role architectTransitions plays for the architect agent.
var transitions = map[Phase][]Phase{
	PhaseSeeding:    {PhaseValidating},
	PhaseValidating: {PhaseEnriching, PhaseArchitect, PhaseEscalated},
	PhaseEnriching:  {PhaseValidating},
}

// isValidTransition reports whether to is a permitted successor of from.
// engine.go's Run calls this through transitionPhase at every phase change.
func isValidTransition(from, to Phase) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
