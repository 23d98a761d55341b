package planner

// Stats are cumulative planning counters since process start, exposed on
// the debug endpoint. Prometheus metrics live at the HTTP layer; these
// are the planner's own view.
type Stats struct {
	Generated     int `json:"generated"`
	Failed        int `json:"failed"`
	Rejected      int `json:"rejected"`
	Candidates    int `json:"candidates"`
	StopsPlanned  int `json:"stopsPlanned"`
	DroppedClosed int `json:"droppedClosed"`
	DroppedBudget int `json:"droppedBudget"`
	TwoOptSwaps   int `json:"twoOptSwaps"`
}

func (p *Planner) record(fn func(*Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (p *Planner) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
