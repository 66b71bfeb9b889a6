package sim

// A Candidate is a proposal tagged with the module that made it. Candidates
// only live for one aggregation round.
type Candidate struct {
	Module     ModuleID
	Individual Individual
	Outcome    Outcome
	Rate       Rate
}

// A Pool is the merged set of candidates of one aggregation round.
type Pool struct {
	Candidates  []Candidate
	TotalWeight Rate

	// Warnings lists the proposals that were dropped during aggregation.
	Warnings []error
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// NewPoolWithCapacity creates an empty pool that can hold the given number of
// candidates without growing.
func NewPoolWithCapacity(capacity int) *Pool {
	return &Pool{
		Candidates: make([]Candidate, 0, capacity),
	}
}

// Add appends a candidate and adds its rate to the total weight.
func (p *Pool) Add(c Candidate) {
	p.Candidates = append(p.Candidates, c)
	p.TotalWeight += c.Rate
}

// Warn records a dropped proposal.
func (p *Pool) Warn(err error) {
	p.Warnings = append(p.Warnings, err)
}

// Len returns the number of candidates.
func (p *Pool) Len() int {
	return len(p.Candidates)
}

// Reset empties the pool but keeps its allocations.
func (p *Pool) Reset() {
	clear(p.Candidates)
	p.Candidates = p.Candidates[:0]
	p.TotalWeight = 0

	clear(p.Warnings)
	p.Warnings = p.Warnings[:0]
}
