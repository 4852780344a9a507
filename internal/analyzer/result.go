package analyzer

import "fmt"

// Kind discriminates Result.
type Kind string

const (
	KindStatistic  Kind = "statistic"
	KindSuggestion Kind = "suggestion" // advisory output without a statistic
	KindNone       Kind = "none"       // nothing worth rendering for this fight
	KindFault      Kind = "fault"      // the module failed during replay or finalize
)

// Format tells the reporting layer how to render a value.
type Format string

const (
	FormatNumber     Format = "number"
	FormatPercentage Format = "percentage" // 0..1
	FormatSeconds    Format = "seconds"
	FormatDecimal    Format = "decimal"
)

// Value is one named number of a statistic.
type Value struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Format Format  `json:"format"`
}

// Statistic is a module's computed payload.
type Statistic struct {
	Label  string  `json:"label"`
	Values []Value `json:"values"`
}

// Get returns the named value.
func (s *Statistic) Get(name string) (float64, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Result is a module's terminal output.
type Result struct {
	Kind        Kind         `json:"kind"`
	Statistic   *Statistic   `json:"statistic,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Err         string       `json:"error,omitempty"`
}

// Stat returns a statistic result with optional suggestions.
func Stat(label string, values []Value, suggestions ...Suggestion) Result {
	return Result{
		Kind:        KindStatistic,
		Statistic:   &Statistic{Label: label, Values: values},
		Suggestions: suggestions,
	}
}

// Suggest returns an advisory-only result, or None when there is nothing to advise.
func Suggest(suggestions ...Suggestion) Result {
	if len(suggestions) == 0 {
		return None()
	}
	return Result{Kind: KindSuggestion, Suggestions: suggestions}
}

// None is the explicit "no result" marker.
func None() Result {
	return Result{Kind: KindNone}
}

// Fault records a module failure.
func Fault(err error) Result {
	return Result{Kind: KindFault, Err: err.Error()}
}

// Faultf is Fault with formatting.
func Faultf(format string, args ...interface{}) Result {
	return Fault(fmt.Errorf(format, args...))
}

// N is shorthand for a number-formatted Value.
func N(name string, v float64) Value { return Value{Name: name, Value: v, Format: FormatNumber} }

// Pct is shorthand for a percentage-formatted Value.
func Pct(name string, v float64) Value { return Value{Name: name, Value: v, Format: FormatPercentage} }
