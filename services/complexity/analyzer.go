// Package complexity scores request text with a fixed keyword heuristic.
// The score only biases model ordering; it never rejects a model.
package complexity

import "strings"

// Factor names reported in Score results
const (
	FactorLength    = "length"
	FactorReasoning = "reasoning_keywords"
	FactorMultiStep = "multi_step_keywords"
	FactorTechnical = "technical_keywords"
)

var (
	reasoningKeywords = []string{
		"analyze", "compare", "evaluate", "explain", "therefore",
		"reason", "why", "justify", "prove", "derive",
	}
	multiStepKeywords = []string{
		"first", "then", "next", "finally", "step", "after that", "subsequently",
	}
	technicalKeywords = []string{
		"code", "algorithm", "engineering", "function", "debug",
		"architecture", "database", "implement",
	}
)

// Score is the result of analyzing one query
type Score struct {
	Value   float64            `json:"value"`
	Factors map[string]float64 `json:"factors"`
}

// Analyze computes a heuristic complexity score in [0,1] for a query.
// Length contributes up to 1.0 (capped at 500 characters); reasoning,
// multi-step and technical keyword hits add fixed bonuses; the total
// is capped at 1.0.
func Analyze(query string) Score {
	factors := make(map[string]float64)

	lengthScore := float64(len(query)) / 500
	if lengthScore > 1 {
		lengthScore = 1
	}
	factors[FactorLength] = lengthScore
	value := lengthScore

	tokens := tokenize(query)

	if containsAny(tokens, reasoningKeywords) {
		factors[FactorReasoning] = 0.3
		value += 0.3
	}
	if containsAny(tokens, multiStepKeywords) {
		factors[FactorMultiStep] = 0.2
		value += 0.2
	}
	if containsAny(tokens, technicalKeywords) {
		factors[FactorTechnical] = 0.2
		value += 0.2
	}

	if value > 1 {
		value = 1
	}

	return Score{Value: value, Factors: factors}
}

// tokenize lowercases the query and splits it on non-letter boundaries
// so keywords match as whole tokens, not substrings of longer words.
func tokenize(query string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return tokens
}

func containsAny(tokens map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			// Multi-word keywords cannot appear as a single token; check
			// the joined token set instead.
			parts := strings.Fields(kw)
			all := true
			for _, p := range parts {
				if !tokens[p] {
					all = false
					break
				}
			}
			if all {
				return true
			}
			continue
		}
		if tokens[kw] {
			return true
		}
	}
	return false
}
