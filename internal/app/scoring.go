package app

import (
	"math"

	"trivia-quest/internal/domain"
)

// CalculateStats scores a finished question list. Only answered questions
// count toward the denominator; an attempt with no answers scores zero
// rather than dividing by zero.
func CalculateStats(questions []domain.Question) domain.QuizStats {
	answered, correct := 0, 0
	for _, q := range questions {
		if !q.Answered() {
			continue
		}
		answered++
		if q.Correct() {
			correct++
		}
	}

	stats := domain.QuizStats{
		Correct:   correct,
		Incorrect: answered - correct,
	}
	if answered > 0 {
		stats.Score = int(math.Round(float64(correct) / float64(answered) * 100))
	}
	return stats
}
