package parser

// Energy bands an action can fall into.
const (
	EnergyLow     = "low"
	EnergyMedium  = "medium"
	EnergyHigh    = "high"
	EnergyExtreme = "extreme"
)

// ParsedComponents is the structured form of a raw prompt. Empty strings and
// nil pointers mean the field was not extracted.
type ParsedComponents struct {
	Subject         Subject        `json:"subject"`
	Action          Action         `json:"action"`
	Setting         Setting        `json:"setting"`
	Objects         []string       `json:"objects"`
	Colors          []string       `json:"colors"`
	Mood            Mood           `json:"mood"`
	SemanticWeights map[string]int `json:"semantic_weights,omitempty"`
}

type Subject struct {
	Type       string   `json:"type,omitempty"`
	Noun       string   `json:"noun,omitempty"`
	Attributes []string `json:"attributes"`
	Profession string   `json:"profession,omitempty"`
	Count      *int     `json:"count,omitempty"`
}

type Action struct {
	Verb        string `json:"verb,omitempty"`
	Object      string `json:"object,omitempty"`
	EnergyLevel string `json:"energy_level,omitempty"`
}

type Setting struct {
	Type       string   `json:"type,omitempty"`
	Location   string   `json:"location,omitempty"`
	Atmosphere string   `json:"atmosphere,omitempty"`
	Attributes []string `json:"attributes"`
}

type Mood struct {
	Emotion   string `json:"emotion,omitempty"`
	Intensity string `json:"intensity,omitempty"`
}
