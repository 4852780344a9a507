package engine

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
)

// ModuleResult is the terminal result of one active module.
type ModuleResult struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Result analyzer.Result `json:"result"`
	Fault  *ModuleFault    `json:"-"`
}

// Report is the outcome of one parse.
type Report struct {
	ParseID    string         `json:"parse_id"`
	Order      []string       `json:"order"`   // resolved order of enabled modules, inactive ones included
	Results    []ModuleResult `json:"results"` // active modules in resolved order
	Dispatched int            `json:"dispatched"`
	Skipped    int            `json:"skipped"` // events after fightend
	DurationMs int64          `json:"duration_ms"`
}

// Get returns the result of module id.
func (r *Report) Get(id string) (analyzer.Result, bool) {
	for _, mr := range r.Results {
		if mr.ID == id {
			return mr.Result, true
		}
	}
	return analyzer.Result{}, false
}

// Map returns results keyed by module id.
func (r *Report) Map() map[string]analyzer.Result {
	out := make(map[string]analyzer.Result, len(r.Results))
	for _, mr := range r.Results {
		out[mr.ID] = mr.Result
	}
	return out
}

// Faults returns the faults of every faulted module in resolved order.
func (r *Report) Faults() []*ModuleFault {
	var out []*ModuleFault
	for _, mr := range r.Results {
		if mr.Fault != nil {
			out = append(out, mr.Fault)
		}
	}
	return out
}
