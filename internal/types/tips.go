package types

// CitationSource is the fixed enumeration of citation source types.
type CitationSource string

const (
	SourceOSM        CitationSource = "OSM"
	SourceWikivoyage CitationSource = "WIKIVOYAGE"
	SourceWeather    CitationSource = "WEATHER"
)

// Citation backs a generated claim with an identifiable source.
type Citation struct {
	Source  CitationSource `json:"source"`
	Ref     string         `json:"ref"`
	Anchor  string         `json:"anchor,omitempty"`
	Snippet string         `json:"snippet,omitempty"`
}

// Tip is a short advisory claim with citations.
type Tip struct {
	ID              string     `json:"id"`
	Claim           string     `json:"claim"`
	Citations       []Citation `json:"citations"`
	Confidence      string     `json:"confidence"` // "low"|"medium"|"high"
	IsGeneralAdvice bool       `json:"is_general_advice"`
}
