package matching

// Outcome is the result of running one strategy against one element.
type Outcome int

const (
	// NotMatched lets the next strategy of the matcher run.
	NotMatched Outcome = iota
	// Matched ends the search; the matcher's type wins.
	Matched
	// VetoRest skips the remaining strategies of the current matcher only.
	VetoRest
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case VetoRest:
		return "veto"
	default:
		return "not-matched"
	}
}

// Result is the {matched, proceed} pair used in JSON output. Proceed is
// only present, and false, for a veto.
type Result struct {
	Matched bool  `json:"matched"`
	Proceed *bool `json:"proceed,omitempty"`
}

// Result renders the outcome as a Result.
func (o Outcome) Result() Result {
	if o == VetoRest {
		proceed := false
		return Result{Matched: false, Proceed: &proceed}
	}
	return Result{Matched: o == Matched}
}

// MarshalText lets outcomes render as strings in JSON and YAML.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
