package grading

import "github.com/talentprobe/talentprobe-backend/internal/model"

// Aggregate combines graded answers into a final score for a session.
//
// The denominator is the sum of points over ALL of the test's questions,
// answered or not — omitting a question counts against the candidate
// instead of shrinking the denominator. Percent is rounded half-up, and
// the boundary is inclusive: percent == passingScore passes.
func Aggregate(passingScore int, questions []model.Question, graded []Result) model.ScoreSummary {
	score := 0
	for _, g := range graded {
		score += g.PointsAwarded
	}

	total := 0
	for _, q := range questions {
		total += q.Points
	}

	percent := 0
	if total > 0 {
		percent = (score*100*2 + total) / (total * 2) // round half up
	}

	return model.ScoreSummary{
		Score:              score,
		TotalPossibleScore: total,
		PercentScore:       percent,
		Passed:             percent >= passingScore,
	}
}
