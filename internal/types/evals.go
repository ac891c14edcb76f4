package types

// EvalFailure is one failed check inside an evaluation.
type EvalFailure struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// EvalResult is the outcome of a single evaluation pass.
type EvalResult struct {
	Name     string        `json:"name"` // "feasibility"|"edit_correctness"|"grounding"
	Passed   bool          `json:"passed"`
	Failures []EvalFailure `json:"failures"`
}

// EvalBundle groups the evaluations stored on a session.
// EditCorrectness is nil until the first edit.
type EvalBundle struct {
	Feasibility     EvalResult  `json:"feasibility"`
	EditCorrectness *EvalResult `json:"edit_correctness"`
	Grounding       EvalResult  `json:"grounding"`
}
