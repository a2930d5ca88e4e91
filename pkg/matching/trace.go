package matching

import (
	"github.com/vulntor/formsense/pkg/dom"
	"github.com/vulntor/formsense/pkg/fieldtype"
)

// TraceStep is one strategy evaluation.
type TraceStep struct {
	List    string              `json:"list"`
	Field   fieldtype.FieldType `json:"field"`
	Kind    string              `json:"kind"`
	Name    string              `json:"name"`
	Outcome Outcome             `json:"outcome"`
}

// Trace records how a label was reached.
type Trace struct {
	Label  string      `json:"label"`
	Preset bool        `json:"preset"`
	CCForm bool        `json:"cc_form"`
	Steps  []TraceStep `json:"steps"`
}

// Explain classifies el like InferInputType and records every strategy
// evaluated, in order.
func (e *Engine) Explain(el dom.Element, form dom.Node, opts InferOptions) Trace {
	tr := Trace{Steps: []TraceStep{}}
	tr.Label = e.infer(el, form, opts, &tr)
	return tr
}

// Deciding returns the step that produced the label, if any.
func (t Trace) Deciding() (TraceStep, bool) {
	if n := len(t.Steps); n > 0 && t.Steps[n-1].Outcome == Matched {
		return t.Steps[n-1], true
	}
	return TraceStep{}, false
}
