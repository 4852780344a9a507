package analyzer

import "fmt"

// Comparison is the direction in which an actual value becomes a problem.
type Comparison string

const (
	GreaterThan Comparison = "greater_than" // problem when actual > threshold
	LessThan    Comparison = "less_than"    // problem when actual < threshold
)

// Importance ranks a suggestion.
type Importance string

const (
	ImportanceMajor   Importance = "major"
	ImportanceRegular Importance = "regular"
	ImportanceMinor   Importance = "minor"
)

// Threshold holds an actual value and its severity bands.
type Threshold struct {
	Actual     float64    `json:"actual"`
	Comparison Comparison `json:"comparison"`
	Minor      float64    `json:"minor"`
	Average    float64    `json:"average"`
	Major      float64    `json:"major"`
	Style      Format     `json:"style"`
}

func (t Threshold) breaks(limit float64) bool {
	if t.Comparison == LessThan {
		return t.Actual < limit
	}
	return t.Actual > limit
}

// Importance returns the most severe band the actual value breaks.
// ok is false when no band is broken.
func (t Threshold) Importance() (imp Importance, ok bool) {
	switch {
	case t.breaks(t.Major):
		return ImportanceMajor, true
	case t.breaks(t.Average):
		return ImportanceRegular, true
	case t.breaks(t.Minor):
		return ImportanceMinor, true
	}
	return "", false
}

// Suggestion is advisory output with the numbers that triggered it.
type Suggestion struct {
	Description string     `json:"description"`
	Actual      string     `json:"actual"`
	Recommended string     `json:"recommended"`
	Importance  Importance `json:"importance"`
	Threshold   Threshold  `json:"threshold"`
}

// Suggest returns a suggestion when the threshold is broken.
func (t Threshold) Suggest(description string) (Suggestion, bool) {
	imp, ok := t.Importance()
	if !ok {
		return Suggestion{}, false
	}
	op := "<"
	if t.Comparison == LessThan {
		op = ">"
	}
	return Suggestion{
		Description: description,
		Actual:      t.Style.render(t.Actual),
		Recommended: op + t.Style.render(t.Minor),
		Importance:  imp,
		Threshold:   t,
	}, true
}

func (f Format) render(v float64) string {
	switch f {
	case FormatPercentage:
		return fmt.Sprintf("%.2f%%", v*100)
	case FormatSeconds:
		return fmt.Sprintf("%.1fs", v)
	case FormatDecimal:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
