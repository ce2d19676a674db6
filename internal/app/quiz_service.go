package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-quest/internal/domain"
)

// PlayerStore persists the player's display name, keyed by an opaque
// device ID supplied by the client. One device, one slot; no sync.
type PlayerStore interface {
	SavePlayerName(ctx context.Context, deviceID, name string) error
	GetPlayerName(ctx context.Context, deviceID string) (string, bool, error)
	ClearPlayerName(ctx context.Context, deviceID string) error
}

// ProgressStore persists the resumable attempt snapshot. Implementations
// must treat a malformed stored record as absent, not as an error.
type ProgressStore interface {
	SaveProgress(ctx context.Context, deviceID string, progress domain.Progress) error
	GetProgress(ctx context.Context, deviceID string) (domain.Progress, bool, error)
	ClearProgress(ctx context.Context, deviceID string) error
}

// QuestionSource fetches a normalized question set for a new attempt.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, cfg domain.QuizConfig) ([]domain.Question, error)
}

// AttemptRepository tracks live attempts per device (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	Put(deviceID string, attempt *Attempt)
	Get(deviceID string) (*Attempt, bool)
	Delete(deviceID string)
}

// QuizService contains the quiz session use cases: starting an attempt,
// recording answers, navigating, and submitting.
type QuizService struct {
	attempts AttemptRepository
	players  PlayerStore
	progress ProgressStore
	source   QuestionSource

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(attempts AttemptRepository, players PlayerStore, progress ProgressStore, source QuestionSource) *QuizService {
	return &QuizService{
		attempts: attempts,
		players:  players,
		progress: progress,
		source:   source,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterPlayer saves the display name entered on the start screen.
func (s *QuizService) RegisterPlayer(ctx context.Context, deviceID, name string) error {
	if name == "" {
		return domain.ErrPlayerNameRequired
	}
	return s.players.SavePlayerName(ctx, deviceID, name)
}

// PlayerName returns the saved display name, if any.
func (s *QuizService) PlayerName(ctx context.Context, deviceID string) (string, bool, error) {
	return s.players.GetPlayerName(ctx, deviceID)
}

// ClearPlayer removes the saved display name.
func (s *QuizService) ClearPlayer(ctx context.Context, deviceID string) error {
	return s.players.ClearPlayerName(ctx, deviceID)
}

// AttemptView is the caller-facing snapshot of a live attempt.
type AttemptView struct {
	AttemptID    string
	Questions    []domain.Question
	CurrentIndex int
}

// StartQuiz fetches a question set, shuffles each question's options, and
// registers a live attempt for the device. If a progress record survives
// from an interrupted attempt, its answers are re-applied by question ID
// and the saved position is restored (clamped to the list bounds). A fetch
// failure leaves no attempt registered.
func (s *QuizService) StartQuiz(ctx context.Context, deviceID string, cfg domain.QuizConfig) (AttemptView, error) {
	if _, ok, err := s.players.GetPlayerName(ctx, deviceID); err != nil {
		return AttemptView{}, err
	} else if !ok {
		return AttemptView{}, domain.ErrPlayerNameRequired
	}
	if !domain.ValidAmount(cfg.Amount) {
		return AttemptView{}, domain.ErrInvalidAmount
	}

	questions, err := s.source.FetchQuestions(ctx, cfg)
	if err != nil {
		return AttemptView{}, err
	}

	s.rndMu.Lock()
	for i := range questions {
		questions[i].AllAnswers = ShuffleAnswers(s.rnd, questions[i].CorrectAnswer, questions[i].IncorrectAnswers)
	}
	s.rndMu.Unlock()

	attempt := newAttempt(uuid.NewString(), deviceID, questions)

	if saved, ok, err := s.progress.GetProgress(ctx, deviceID); err != nil {
		return AttemptView{}, err
	} else if ok {
		attempt.applyProgress(saved)
	}

	s.attempts.Put(deviceID, attempt)
	return attempt.view(), nil
}

// RecordAnswer sets the player's answer on the question at index. A
// question can only be answered once; re-answering is rejected. The
// progress record is rewritten after the mutation.
func (s *QuizService) RecordAnswer(ctx context.Context, deviceID string, index int, answer string) (domain.Question, error) {
	attempt, ok := s.attempts.Get(deviceID)
	if !ok {
		return domain.Question{}, domain.ErrNoActiveAttempt
	}
	question, err := attempt.recordAnswer(index, answer)
	if err != nil {
		return domain.Question{}, err
	}
	s.persistProgress(ctx, deviceID, attempt)
	return question, nil
}

// GoNext advances the current position by one, staying inside the list.
func (s *QuizService) GoNext(ctx context.Context, deviceID string) (int, error) {
	return s.move(ctx, deviceID, 1)
}

// GoPrevious moves the current position back by one, staying inside the list.
func (s *QuizService) GoPrevious(ctx context.Context, deviceID string) (int, error) {
	return s.move(ctx, deviceID, -1)
}

func (s *QuizService) move(ctx context.Context, deviceID string, delta int) (int, error) {
	attempt, ok := s.attempts.Get(deviceID)
	if !ok {
		return 0, domain.ErrNoActiveAttempt
	}
	index, err := attempt.move(delta)
	if err != nil {
		return 0, err
	}
	s.persistProgress(ctx, deviceID, attempt)
	return index, nil
}

// AttemptSubmit finalizes the attempt when every question is answered.
// When some are not, it returns their count and leaves the attempt live so
// the caller can ask the player to confirm before ForceSubmit.
func (s *QuizService) AttemptSubmit(ctx context.Context, deviceID string) (int, []domain.Question, error) {
	attempt, ok := s.attempts.Get(deviceID)
	if !ok {
		return 0, nil, domain.ErrNoActiveAttempt
	}
	if n := attempt.unansweredCount(); n > 0 {
		return n, nil, nil
	}
	finished, err := s.finalize(ctx, deviceID, attempt)
	return 0, finished, err
}

// ForceSubmit finalizes the attempt regardless of unanswered questions.
func (s *QuizService) ForceSubmit(ctx context.Context, deviceID string) ([]domain.Question, error) {
	attempt, ok := s.attempts.Get(deviceID)
	if !ok {
		return nil, domain.ErrNoActiveAttempt
	}
	return s.finalize(ctx, deviceID, attempt)
}

func (s *QuizService) finalize(ctx context.Context, deviceID string, attempt *Attempt) ([]domain.Question, error) {
	finished, err := attempt.finalize()
	if err != nil {
		return nil, err
	}
	s.attempts.Delete(deviceID)
	if err := s.progress.ClearProgress(ctx, deviceID); err != nil {
		log.Printf("clear progress for %s: %v", deviceID, err)
	}
	return finished, nil
}

// Abandon drops the live attempt and its progress record, returning the
// device to a clean start-screen state.
func (s *QuizService) Abandon(ctx context.Context, deviceID string) error {
	s.attempts.Delete(deviceID)
	return s.progress.ClearProgress(ctx, deviceID)
}

// persistProgress rewrites the snapshot after every mutation. Failures are
// logged, not surfaced: losing resumability must not fail the attempt.
func (s *QuizService) persistProgress(ctx context.Context, deviceID string, attempt *Attempt) {
	if err := s.progress.SaveProgress(ctx, deviceID, attempt.progressSnapshot()); err != nil {
		log.Printf("save progress for %s: %v", deviceID, err)
	}
}

// Attempt is one run through a fetched question list, from start to
// submission. It exclusively owns its in-memory question list.
type Attempt struct {
	id       string
	deviceID string

	mu        sync.RWMutex
	questions []domain.Question
	current   int
	submitted bool
}

func newAttempt(id, deviceID string, questions []domain.Question) *Attempt {
	return &Attempt{
		id:        id,
		deviceID:  deviceID,
		questions: questions,
	}
}

func (a *Attempt) view() AttemptView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	questions := make([]domain.Question, len(a.questions))
	copy(questions, a.questions)
	return AttemptView{AttemptID: a.id, Questions: questions, CurrentIndex: a.current}
}

// applyProgress reconciles a persisted snapshot with the fresh question
// list. Saved answers only stick when they are still among the question's
// options; the saved position is clamped to the list bounds.
func (a *Attempt) applyProgress(saved domain.Progress) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, answer := range saved.Answers {
		if id < 0 || id >= len(a.questions) {
			continue
		}
		if !contains(a.questions[id].AllAnswers, answer) {
			continue
		}
		a.questions[id].UserAnswer = answer
	}

	index := saved.CurrentIndex
	if index < 0 {
		index = 0
	}
	if max := len(a.questions) - 1; index > max {
		index = max
	}
	a.current = index
}

func (a *Attempt) recordAnswer(index int, answer string) (domain.Question, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return domain.Question{}, domain.ErrAttemptSubmitted
	}
	if index < 0 || index >= len(a.questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	question := &a.questions[index]
	if question.Answered() {
		return domain.Question{}, domain.ErrAlreadyAnswered
	}
	if !contains(question.AllAnswers, answer) {
		return domain.Question{}, domain.ErrAnswerNotOffered
	}
	question.UserAnswer = answer
	return *question, nil
}

// move shifts the position by delta, clamped to the list. Hitting a
// boundary is a no-op, not an error.
func (a *Attempt) move(delta int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return 0, domain.ErrAttemptSubmitted
	}
	next := a.current + delta
	if next >= 0 && next < len(a.questions) {
		a.current = next
	}
	return a.current, nil
}

func (a *Attempt) unansweredCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	count := 0
	for _, q := range a.questions {
		if !q.Answered() {
			count++
		}
	}
	return count
}

// finalize marks the attempt submitted and hands the question list to the
// caller. Submitted is terminal; a new attempt starts from StartQuiz.
func (a *Attempt) finalize() ([]domain.Question, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return nil, domain.ErrAttemptSubmitted
	}
	a.submitted = true
	finished := make([]domain.Question, len(a.questions))
	copy(finished, a.questions)
	return finished, nil
}

func (a *Attempt) progressSnapshot() domain.Progress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	answers := make(map[int]string)
	for _, q := range a.questions {
		if q.Answered() {
			answers[q.ID] = q.UserAnswer
		}
	}
	return domain.Progress{CurrentIndex: a.current, Answers: answers}
}

func contains(options []string, answer string) bool {
	for _, option := range options {
		if option == answer {
			return true
		}
	}
	return false
}
