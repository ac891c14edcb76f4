package types

import "time"

// ToolCallTrace is one entry in the session's tool-call log, kept short
// for inspection and grading of pipeline behavior.
type ToolCallTrace struct {
	ToolName      string    `json:"tool_name"`
	InputSummary  string    `json:"input_summary"`
	OutputSummary string    `json:"output_summary"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session is the aggregate root for one planning conversation. The
// session store exclusively owns instances; handlers receive a mutable
// reference for one request and persist it back explicitly.
type Session struct {
	ID          string          `json:"session_id"`
	Constraints Constraints     `json:"constraints"`
	POIResult   POISearchResult `json:"poi_result"`
	POICatalog  map[string]POI  `json:"poi_catalog"`
	Itinerary   Itinerary       `json:"itinerary"`
	Tips        []Tip           `json:"tips"`
	Evals       EvalBundle      `json:"evals"`
	ToolTrace   []ToolCallTrace `json:"tool_trace"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Trace appends a tool-call entry to the session log.
func (s *Session) Trace(tool, input, output string) {
	s.ToolTrace = append(s.ToolTrace, ToolCallTrace{
		ToolName:      tool,
		InputSummary:  input,
		OutputSummary: output,
		Timestamp:     time.Now().UTC(),
	})
}
