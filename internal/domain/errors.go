package domain

import "errors"

var (
	// ErrFetchFailed wraps any failure to obtain questions from the remote source.
	ErrFetchFailed = errors.New("question fetch failed")
	// ErrPlayerNameRequired is returned when a quiz is started with no saved player name.
	ErrPlayerNameRequired = errors.New("player name required")
	// ErrInvalidAmount is returned for a question count outside the offered set.
	ErrInvalidAmount = errors.New("invalid question amount")
	// ErrNoActiveAttempt is returned when an operation needs a running attempt.
	ErrNoActiveAttempt = errors.New("no active quiz attempt")
	// ErrQuestionNotFound indicates an index outside the attempt's question list.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyAnswered is returned when re-answering an answered question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrAnswerNotOffered indicates an answer that is not one of the question's options.
	ErrAnswerNotOffered = errors.New("answer not among offered options")
	// ErrAttemptSubmitted is returned when mutating a finished attempt.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
)
