package types

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentPlan    Intent = "PLAN"
	IntentEdit    Intent = "EDIT"
	IntentExplain Intent = "EXPLAIN"
	IntentUnknown Intent = "UNKNOWN"
)

// ValidIntent reports whether i is one of the fixed enumeration.
func ValidIntent(i Intent) bool {
	switch i {
	case IntentPlan, IntentEdit, IntentExplain, IntentUnknown:
		return true
	}
	return false
}

// IntentResult is the classifier output. Original and Resolved expose
// the coercion path when an endpoint-implied intent overrode an
// UNKNOWN/low-confidence classification.
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Original   Intent  `json:"original,omitempty"`
	Resolved   Intent  `json:"resolved,omitempty"`
}
