package types

// PlanRequest creates or refreshes a session from an utterance.
type PlanRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Utterance string `json:"utterance"`
}

// PlanResponse returns the full session plus classifier output.
type PlanResponse struct {
	Session *Session             `json:"session"`
	Intent  IntentResult         `json:"intent"`
	LLM     ExtractedConstraints `json:"extracted_constraints"`
}

// EditRequest mutates an existing session's itinerary.
type EditRequest struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}

// EditResponse returns the mutated session with the applied command and
// the changed day/block lists.
type EditResponse struct {
	Session *Session    `json:"session"`
	Command EditCommand `json:"command"`
	Outcome EditOutcome `json:"outcome"`
}

// ExplainRequest asks why an element of the itinerary was chosen.
type ExplainRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	POIID     string `json:"poi_id,omitempty"`
}

// ExplainResponse carries the answer with its citations.
type ExplainResponse struct {
	Answer       string       `json:"answer"`
	Citations    []Citation   `json:"citations"`
	RelatedEvals []EvalResult `json:"related_evals,omitempty"`
}
