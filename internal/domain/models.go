package domain

// Difficulty narrows the question pool; empty means any.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType narrows the question format; empty means any.
type QuestionType string

const (
	TypeAny      QuestionType = ""
	TypeMultiple QuestionType = "multiple"
	TypeBoolean  QuestionType = "boolean"
)

// Question is one entry of an attempt's question list. IDs are
// session-local: the question's position in the fetched list, 0-based.
// They are not stable across attempts.
type Question struct {
	ID               int          `json:"id"`
	Category         string       `json:"category"`
	Type             QuestionType `json:"type"`
	Difficulty       Difficulty   `json:"difficulty"`
	Prompt           string       `json:"prompt"`
	CorrectAnswer    string       `json:"correctAnswer"`
	IncorrectAnswers []string     `json:"incorrectAnswers"`
	// AllAnswers is a shuffled permutation of the correct answer and the
	// incorrect ones, fixed at fetch time.
	AllAnswers []string `json:"allAnswers"`
	// UserAnswer is empty until the player picks one of AllAnswers.
	UserAnswer string `json:"userAnswer,omitempty"`
}

// Answered reports whether the player has picked an answer.
func (q Question) Answered() bool {
	return q.UserAnswer != ""
}

// Correct reports whether the picked answer matches the correct one.
func (q Question) Correct() bool {
	return q.Answered() && q.UserAnswer == q.CorrectAnswer
}

// Progress is the persisted snapshot of a resumable attempt. Answers is
// keyed by question ID; JSON encoding renders the keys as strings.
type Progress struct {
	CurrentIndex int            `json:"currentIndex"`
	Answers      map[int]string `json:"answers"`
}

// QuizConfig selects what to fetch for a new attempt. Category is an
// optional Open Trivia DB category ID; zero means all categories.
type QuizConfig struct {
	Amount     int
	Difficulty Difficulty
	Type       QuestionType
	Category   int
}

// allowedAmounts mirrors the question-count choices offered to players.
var allowedAmounts = map[int]bool{5: true, 10: true, 15: true, 20: true}

// ValidAmount reports whether n is one of the offered question counts.
func ValidAmount(n int) bool {
	return allowedAmounts[n]
}

// QuizStats summarizes a finished attempt. Only answered questions count
// toward the denominator; Score is a rounded percentage.
type QuizStats struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Score     int `json:"score"`
}

// Category is an Open Trivia DB question category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
