package grading

import (
	"testing"

	"github.com/talentprobe/talentprobe-backend/internal/model"
)

func questionsWithPoints(points ...int) []model.Question {
	qs := make([]model.Question, len(points))
	for i, p := range points {
		qs[i] = model.Question{ID: int64(i + 1), Points: p}
	}
	return qs
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name         string
		passingScore int
		questions    []model.Question
		awarded      []int
		wantScore    int
		wantTotal    int
		wantPercent  int
		wantPassed   bool
	}{
		{
			name:         "full marks",
			passingScore: 50,
			questions:    questionsWithPoints(10),
			awarded:      []int{10},
			wantScore:    10, wantTotal: 10, wantPercent: 100, wantPassed: true,
		},
		{
			name:         "zero marks",
			passingScore: 50,
			questions:    questionsWithPoints(10),
			awarded:      []int{0},
			wantScore:    0, wantTotal: 10, wantPercent: 0, wantPassed: false,
		},
		{
			name:         "omitted question counts against denominator",
			passingScore: 50,
			questions:    questionsWithPoints(5, 5),
			awarded:      []int{5}, // second question never answered
			wantScore:    5, wantTotal: 10, wantPercent: 50, wantPassed: true,
		},
		{
			name:         "boundary is inclusive",
			passingScore: 70,
			questions:    questionsWithPoints(10),
			awarded:      []int{7},
			wantScore:    7, wantTotal: 10, wantPercent: 70, wantPassed: true,
		},
		{
			name:         "half rounds up across boundary",
			passingScore: 70,
			questions:    questionsWithPoints(100, 100),
			awarded:      []int{100, 39}, // 139/200 = 69.5% → 70
			wantScore:    139, wantTotal: 200, wantPercent: 70, wantPassed: true,
		},
		{
			name:         "below half rounds down",
			passingScore: 70,
			questions:    questionsWithPoints(100, 100),
			awarded:      []int{100, 38}, // 138/200 = 69%
			wantScore:    138, wantTotal: 200, wantPercent: 69, wantPassed: false,
		},
		{
			name:         "third rounds to nearest",
			passingScore: 33,
			questions:    questionsWithPoints(1, 1, 1),
			awarded:      []int{1},
			wantScore:    1, wantTotal: 3, wantPercent: 33, wantPassed: true,
		},
		{
			name:         "no questions yields zero percent",
			passingScore: 70,
			questions:    nil,
			awarded:      nil,
			wantScore:    0, wantTotal: 0, wantPercent: 0, wantPassed: false,
		},
		{
			name:         "zero threshold passes empty test",
			passingScore: 0,
			questions:    nil,
			awarded:      nil,
			wantScore:    0, wantTotal: 0, wantPercent: 0, wantPassed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			graded := make([]Result, len(tc.awarded))
			for i, p := range tc.awarded {
				graded[i] = Result{PointsAwarded: p}
			}

			got := Aggregate(tc.passingScore, tc.questions, graded)

			if got.Score != tc.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tc.wantScore)
			}
			if got.TotalPossibleScore != tc.wantTotal {
				t.Errorf("TotalPossibleScore = %d, want %d", got.TotalPossibleScore, tc.wantTotal)
			}
			if got.PercentScore != tc.wantPercent {
				t.Errorf("PercentScore = %d, want %d", got.PercentScore, tc.wantPercent)
			}
			if got.Passed != tc.wantPassed {
				t.Errorf("Passed = %v, want %v", got.Passed, tc.wantPassed)
			}
		})
	}
}
