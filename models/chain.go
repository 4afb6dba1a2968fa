package models

// ChainDescriptor is a named, ordered list of catalog model ids.
// The order defines default attempt priority before dynamic reordering.
type ChainDescriptor struct {
	Name    string   `json:"name"`
	Models  []string `json:"models"`
	UseCase string   `json:"use_case,omitempty"`
}
