package privacy

import "regexp"

// DetectionRule represents a single PII detection rule
type DetectionRule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Finding counts the matches of one rule
type Finding struct {
	EntityType string `json:"entity_type"`
	Masked     string `json:"masked"`
	Count      int    `json:"count"`
}

// ProcessResult contains the result of processing text through the detector
type ProcessResult struct {
	MaskedText string    `json:"masked_text"`
	Findings   []Finding `json:"findings"`
}

// DefaultRules returns the built-in rules in the order they are applied.
// Longer digit patterns run first so a card number is not read as a phone number.
func DefaultRules() []DetectionRule {
	return []DetectionRule{
		{
			Name:        "email",
			Pattern:     regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			Replacement: "[EMAIL]",
		},
		{
			Name:        "ssn",
			Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[SSN]",
		},
		{
			Name:        "credit_card",
			Pattern:     regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,7}\b`),
			Replacement: "[CREDIT_CARD]",
		},
		{
			Name:        "phone",
			Pattern:     regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?\(?\b\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}\b`),
			Replacement: "[PHONE]",
		},
		{
			Name:        "ip_address",
			Pattern:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			Replacement: "[IP_ADDRESS]",
		},
	}
}
