package domain

import "errors"

var (
	// ErrChallengeCompleted is returned when the user already completed the
	// challenge within its current window (today / this calendar week).
	ErrChallengeCompleted = errors.New("challenge already completed for this period")
	// ErrChallengeActive is returned when the user already holds an open
	// session for that challenge track.
	ErrChallengeActive = errors.New("challenge already active")
	// ErrNoActiveChallenge is returned when an answer arrives with no open
	// session for the user.
	ErrNoActiveChallenge = errors.New("no active challenge")
	// ErrQuestionUnavailable indicates the question source could not supply
	// the question(s) needed to issue a challenge.
	ErrQuestionUnavailable = errors.New("question unavailable")
	// ErrUnknownChallengeKind indicates a challenge kind outside daily/weekly.
	ErrUnknownChallengeKind = errors.New("unknown challenge kind")
	// ErrInvalidQuestion flags a caller contract violation: a zero-value or
	// nil question where one is required.
	ErrInvalidQuestion = errors.New("invalid question")
)
