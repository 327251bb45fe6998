package markov

// Trace is the assembled output of one strategy run: the occupancy
// distribution for every cycle, the per-cycle effect increments, and
// the cumulative effect. It packages results for reporting without
// further transformation.
type Trace struct {
	Strategy   string
	States     []string
	Dist       [][]float64 // Dist[t][i]: proportion of the cohort in state i at cycle t
	Increments []float64
	Effect     float64
	CohortSize float64
}

// NewTrace assembles a trace. CohortSize scales reported occupancy from
// proportions to counts; 1 reports proportions unchanged.
func NewTrace(strategy string, states []State, dists [][]float64, increments []float64, effect, cohortSize float64) *Trace {
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = st.Name
	}
	if cohortSize <= 0 {
		cohortSize = 1
	}
	return &Trace{
		Strategy:   strategy,
		States:     names,
		Dist:       dists,
		Increments: increments,
		Effect:     effect,
		CohortSize: cohortSize,
	}
}

// Cycles returns the number of simulated cycles (the trace holds
// Cycles()+1 occupancy vectors, including cycle 0).
func (t *Trace) Cycles() int {
	if len(t.Dist) == 0 {
		return 0
	}
	return len(t.Dist) - 1
}

// Occupancy returns the cohort occupancy at the given cycle, keyed by
// state name and scaled by the cohort size.
func (t *Trace) Occupancy(cycle int) map[string]float64 {
	out := make(map[string]float64, len(t.States))
	for i, name := range t.States {
		out[name] = t.Dist[cycle][i] * t.CohortSize
	}
	return out
}

// Counts returns the occupancy vector at the given cycle scaled by the
// cohort size, in state order.
func (t *Trace) Counts(cycle int) []float64 {
	out := make([]float64, len(t.States))
	for i := range t.States {
		out[i] = t.Dist[cycle][i] * t.CohortSize
	}
	return out
}
