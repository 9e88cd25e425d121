// internal/config/policy.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompletionPolicy is the per-deployment weighting of document types when an
// indicator's completion rate is derived.
//
//	evidence_weight: 60
//	guidance_weight: 40
type CompletionPolicy struct {
	EvidenceWeight *int `yaml:"evidence_weight"`
	GuidanceWeight *int `yaml:"guidance_weight"`
}

// LoadCompletionPolicy reads the policy file at path. An empty path yields
// the default equal weighting.
func LoadCompletionPolicy(path string) (*CompletionPolicy, error) {
	if path == "" {
		return ParseCompletionPolicy(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseCompletionPolicy(data)
}

func ParseCompletionPolicy(data []byte) (*CompletionPolicy, error) {
	var p CompletionPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse completion policy: %w", err)
	}
	p.applyDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Weights returns the evidence and guidance weights.
func (p *CompletionPolicy) Weights() (evidence, guidance int) {
	return *p.EvidenceWeight, *p.GuidanceWeight
}

// applyDefaults fills a missing weight with the complement of the other.
func (p *CompletionPolicy) applyDefaults() {
	switch {
	case p.EvidenceWeight == nil && p.GuidanceWeight == nil:
		p.EvidenceWeight, p.GuidanceWeight = intPtr(50), intPtr(50)
	case p.EvidenceWeight == nil:
		p.EvidenceWeight = intPtr(100 - *p.GuidanceWeight)
	case p.GuidanceWeight == nil:
		p.GuidanceWeight = intPtr(100 - *p.EvidenceWeight)
	}
}

func (p *CompletionPolicy) validate() error {
	var errs []string
	if *p.EvidenceWeight < 0 || *p.EvidenceWeight > 100 {
		errs = append(errs, "evidence_weight must be between 0 and 100")
	}
	if *p.GuidanceWeight < 0 || *p.GuidanceWeight > 100 {
		errs = append(errs, "guidance_weight must be between 0 and 100")
	}
	if *p.EvidenceWeight+*p.GuidanceWeight == 0 {
		errs = append(errs, "at least one weight must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: completion policy validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func intPtr(v int) *int { return &v }
