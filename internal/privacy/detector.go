// Package privacy masks personal data in sentences shared with dashboard viewers.
package privacy

import (
	"fmt"

	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/raaihank/bias-auditor/internal/logger"
	"go.uber.org/zap"
)

// Detector handles PII detection and masking
type Detector struct {
	rules  []DetectionRule
	logger *logger.Logger
}

// New creates a detector running the rules named in cfg.Detectors ("all" selects every rule)
func New(cfg config.PrivacyConfig, log *logger.Logger) (*Detector, error) {
	if log == nil {
		log = logger.Nop()
	}

	rules, err := selectRules(DefaultRules(), cfg.Detectors)
	if err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("Privacy detector initialized",
		zap.Int("enabled_rules", len(rules)),
		zap.Strings("rules", ruleNames(rules)),
	)

	return &Detector{rules: rules, logger: log}, nil
}

// selectRules keeps the named rules in their default order
func selectRules(all []DetectionRule, names []string) ([]DetectionRule, error) {
	enabled := make(map[string]bool)
	for _, name := range names {
		if name == "all" {
			return all, nil
		}

		found := false
		for _, rule := range all {
			if rule.Name == name {
				enabled[name] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown detector: %s", name)
		}
	}

	rules := make([]DetectionRule, 0, len(enabled))
	for _, rule := range all {
		if enabled[rule.Name] {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

// ProcessText processes text through all enabled PII detectors
func (d *Detector) ProcessText(text string) ProcessResult {
	maskedText := text
	findings := make([]Finding, 0)

	for _, rule := range d.rules {
		matches := rule.Pattern.FindAllStringIndex(maskedText, -1)
		if len(matches) == 0 {
			continue
		}

		findings = append(findings, Finding{
			EntityType: rule.Name,
			Masked:     rule.Replacement,
			Count:      len(matches),
		})
		maskedText = rule.Pattern.ReplaceAllLiteralString(maskedText, rule.Replacement)

		d.logger.Debug("PII detected and masked",
			zap.String("entity_type", rule.Name),
			zap.Int("count", len(matches)),
		)
	}

	return ProcessResult{MaskedText: maskedText, Findings: findings}
}

// Mask returns text with every detected entity replaced
func (d *Detector) Mask(text string) string {
	return d.ProcessText(text).MaskedText
}

// EnabledRules returns the active rule names in application order
func (d *Detector) EnabledRules() []string {
	return ruleNames(d.rules)
}

func ruleNames(rules []DetectionRule) []string {
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Name)
	}
	return names
}
