package service

import "github.com/dangerclosesec/qualitrack/internal/model"

// CompletionPolicy weighs the two halves of indicator coverage: evidence
// documents and guidance documents (procedures or models). The weights are
// percentages and are normalized to sum to 100.
type CompletionPolicy struct {
	EvidenceWeight int
	GuidanceWeight int
}

// DefaultCompletionPolicy weighs evidence and guidance equally.
func DefaultCompletionPolicy() CompletionPolicy {
	return CompletionPolicy{EvidenceWeight: 50, GuidanceWeight: 50}
}

func (p CompletionPolicy) normalized() CompletionPolicy {
	if p.EvidenceWeight < 0 {
		p.EvidenceWeight = 0
	}
	if p.GuidanceWeight < 0 {
		p.GuidanceWeight = 0
	}
	sum := p.EvidenceWeight + p.GuidanceWeight
	if sum == 0 {
		return DefaultCompletionPolicy()
	}
	evidence := p.EvidenceWeight * 100 / sum
	return CompletionPolicy{EvidenceWeight: evidence, GuidanceWeight: 100 - evidence}
}

// Evaluate maps document counts to a completion rate and status.
//
//   - no documents: not_started, 0
//   - rate 100: completed
//   - anything else: in_progress
//
// The result depends only on the counts, so removing a document restores the
// state that preceded its addition.
func (p CompletionPolicy) Evaluate(c model.DocumentCounts) (int, model.IndicatorStatus) {
	if c.Total() == 0 {
		return 0, model.IndicatorNotStarted
	}

	p = p.normalized()
	rate := 0
	if c.Evidence > 0 {
		rate += p.EvidenceWeight
	}
	if c.Procedure+c.Model > 0 {
		rate += p.GuidanceWeight
	}

	if rate >= 100 {
		return 100, model.IndicatorCompleted
	}
	return rate, model.IndicatorInProgress
}
