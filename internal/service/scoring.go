package service

import (
	"math"

	"github.com/codegrade/codegrade-api/internal/models"
)

// caseScore is the marks decision for one test case.
type caseScore struct {
	Correct    bool
	Marks      float64
	MarksOutOf float64
}

// round2 rounds to two decimal places, half away from zero. All mark
// arithmetic goes through this one function so every surface reports the
// same figures.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// scoreBatch converts judge verdict codes into per-case marks and the
// aggregate. The total is split evenly: each case is worth
// round2(totalMarks/n), earned in full on an accepted verdict and not at
// all otherwise. The aggregate is rounded once more after summing.
func scoreBatch(totalMarks int, verdicts []int) ([]caseScore, float64) {
	if len(verdicts) == 0 {
		return nil, 0
	}

	perCase := round2(float64(totalMarks) / float64(len(verdicts)))

	scores := make([]caseScore, len(verdicts))
	earned := 0.0
	for i, verdict := range verdicts {
		score := caseScore{MarksOutOf: perCase}
		if verdict == models.StatusAccepted {
			score.Correct = true
			score.Marks = perCase
			earned += perCase
		}
		scores[i] = score
	}

	return scores, round2(earned)
}
