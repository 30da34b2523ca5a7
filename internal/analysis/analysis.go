// Package analysis produces job analysis results.
//
// The real algorithms (skills matching, salary benchmarking) run inside
// CareerOS; this package is the local stand-in that returns a fixed
// placeholder payload so the bookmark pipeline and UI have a complete
// shape to work with.
package analysis

import (
	"context"

	"careeros/collector-service/internal/model"
)

// Analyzer computes a JobAnalysis for a bookmarked job.
type Analyzer interface {
	Analyze(ctx context.Context, job model.JobRecord) (*model.JobAnalysis, error)
}

// StubAnalyzer returns the fixed placeholder analysis.
type StubAnalyzer struct{}

// NewStubAnalyzer returns the placeholder implementation.
func NewStubAnalyzer() *StubAnalyzer { return &StubAnalyzer{} }

// Analyze implements Analyzer with static content.
func (StubAnalyzer) Analyze(_ context.Context, _ model.JobRecord) (*model.JobAnalysis, error) {
	experienceGap := &model.ExperienceGap{Years: 2, Type: "senior"}
	return &model.JobAnalysis{
		SkillsMatch: model.SkillsMatch{
			MatchedSkills:   []string{"JavaScript", "React", "Node.js"},
			MissingSkills:   []string{"TypeScript", "AWS"},
			MatchPercentage: 75,
			PrioritySkills:  []string{"TypeScript", "AWS"},
		},
		RequirementsGap: model.RequirementsGap{
			MissingRequirements: []string{"5+ years experience", "AWS certification"},
			ExperienceGap:       experienceGap,
			CertificationGap:    []string{"AWS Certified Developer"},
		},
		SalaryBenchmark: model.SalaryBenchmark{
			MarketRate:      120000,
			SalaryGap:       25000,
			NegotiationRoom: 15000,
			BenefitsComparison: map[string]string{
				"health":     "good",
				"retirement": "excellent",
			},
		},
		ApplicationReadiness: model.ApplicationReadiness{
			Score:           75,
			Strengths:       []string{"Strong technical skills", "Relevant experience"},
			Weaknesses:      []string{"Missing AWS experience", "Need more senior-level projects"},
			Recommendations: []string{"Get AWS certification", "Build a senior-level project"},
		},
	}, nil
}
