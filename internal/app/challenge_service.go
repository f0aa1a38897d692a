package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trivia-challenge-service/internal/domain"
)

const weeklyQuestionCount = 5

// weeklyFinalMultiplier triples the accumulated per-question points when the
// fifth answer finalizes a weekly run.
const weeklyFinalMultiplier = 3

// ChallengeService manages the daily and weekly challenge lifecycles: a
// session table keyed by user id, eligibility gating through the progress
// store, deferred weekly scoring, and the Monday-reset scheduler.
type ChallengeService struct {
	questions QuestionRepository
	progress  ProgressStore
	sink      NotificationSink
	now       func() time.Time

	mu     sync.Mutex
	daily  map[int64]*dailySession
	weekly map[int64]*weeklySession

	schedMu     sync.Mutex
	schedCancel context.CancelFunc
	schedDone   chan struct{}
}

type dailySession struct {
	question domain.Question
	issuedAt time.Time
	attempts int // max 1
}

type weeklySession struct {
	mu        sync.Mutex
	questions []domain.Question
	startedAt time.Time
	cursor    int // next question to answer, 0..5
	correct   int
	total     int // accumulated per-question points, pre-triple
	answers   []domain.AnswerRecord
	finalized bool // set once the award has been persisted
}

func NewChallengeService(questions QuestionRepository, progress ProgressStore, sink NotificationSink) *ChallengeService {
	return NewChallengeServiceWithClock(questions, progress, sink, time.Now)
}

// NewChallengeServiceWithClock allows deterministic time in tests.
func NewChallengeServiceWithClock(questions QuestionRepository, progress ProgressStore, sink NotificationSink, now func() time.Time) *ChallengeService {
	return &ChallengeService{
		questions: questions,
		progress:  progress,
		sink:      sink,
		now:       now,
		daily:     make(map[int64]*dailySession),
		weekly:    make(map[int64]*weeklySession),
	}
}

// StartDaily opens a daily challenge session and returns its question.
// Ineligible states come back as sentinel errors (ErrChallengeActive,
// ErrChallengeCompleted, ErrQuestionUnavailable); only storage failures are
// infrastructure errors.
func (s *ChallengeService) StartDaily(ctx context.Context, userID int64) (*domain.Question, error) {
	s.mu.Lock()
	_, active := s.daily[userID]
	s.mu.Unlock()
	if active {
		return nil, domain.ErrChallengeActive
	}

	ok, err := s.progress.CanAttemptChallenge(ctx, userID, ChallengeDaily)
	if err != nil {
		return nil, fmt.Errorf("check daily eligibility: %w", err)
	}
	if !ok {
		return nil, domain.ErrChallengeCompleted
	}

	question, err := s.questions.GetDailyQuestion(ctx)
	if err != nil {
		return nil, fmt.Errorf("draw daily question: %w", err)
	}
	if question == nil {
		return nil, domain.ErrQuestionUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.daily[userID]; active {
		return nil, domain.ErrChallengeActive
	}
	s.daily[userID] = &dailySession{question: *question, issuedAt: s.now()}
	return question, nil
}

// DailyQuestion returns the issued question of an open daily session.
func (s *ChallengeService) DailyQuestion(userID int64) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.daily[userID]
	if !ok {
		return nil, domain.ErrNoActiveChallenge
	}
	q := sess.question
	return &q, nil
}

// SubmitDailyAnswer validates an extracted answer against the session's
// question and processes it.
func (s *ChallengeService) SubmitDailyAnswer(ctx context.Context, userID int64, answer string, timeTaken float64) (domain.DailyResult, error) {
	question, err := s.DailyQuestion(userID)
	if err != nil {
		return domain.DailyResult{}, err
	}
	correct, err := ValidateAnswer(*question, answer)
	if err != nil {
		return domain.DailyResult{}, err
	}
	return s.ProcessDailyAnswer(ctx, userID, correct, timeTaken)
}

// ProcessDailyAnswer scores the single daily attempt with the challenge
// multiplier, persists the award, stamps the completion date, and destroys
// the session. A duplicate submission while the first is in flight gets
// ErrNoActiveChallenge; a storage failure releases the attempt so the caller
// can retry without the award having been applied.
func (s *ChallengeService) ProcessDailyAnswer(ctx context.Context, userID int64, correct bool, timeTaken float64) (domain.DailyResult, error) {
	s.mu.Lock()
	sess, ok := s.daily[userID]
	if !ok || sess.attempts >= 1 {
		s.mu.Unlock()
		return domain.DailyResult{}, domain.ErrNoActiveChallenge
	}
	sess.attempts++
	question := sess.question
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if cur, ok := s.daily[userID]; ok && cur == sess {
			cur.attempts--
		}
		s.mu.Unlock()
	}

	profile, err := s.progress.GetOrCreate(ctx, userID)
	if err != nil {
		release()
		return domain.DailyResult{}, fmt.Errorf("load profile: %w", err)
	}

	breakdown := TotalScore(ScoreInput{
		Difficulty:    question.Difficulty,
		Correct:       correct,
		TimeTaken:     timeTaken,
		CurrentStreak: profile.CurrentStreak,
		UserAccuracy:  profile.AccuracyPercentage(),
		IsChallenge:   true,
	})

	if _, err := s.progress.UpdateStats(ctx, userID, StatsUpdate{
		Points:     breakdown.TotalPoints,
		Correct:    correct,
		Difficulty: question.Difficulty,
		Category:   question.Category,
	}); err != nil {
		release()
		return domain.DailyResult{}, fmt.Errorf("award daily points: %w", err)
	}

	// Points are committed past this line; the session must go away even if
	// the completion stamp fails, or a retry would award twice.
	s.mu.Lock()
	delete(s.daily, userID)
	s.mu.Unlock()

	result := domain.DailyResult{
		Correct:         correct,
		BasePoints:      breakdown.BasePoints,
		ChallengePoints: breakdown.TotalPoints,
		Explanation:     question.Explanation,
		Breakdown:       breakdown,
	}
	if err := s.progress.UpdateChallengeCompletion(ctx, userID, ChallengeDaily); err != nil {
		return result, fmt.Errorf("stamp daily completion: %w", err)
	}
	return result, nil
}

// StartWeekly opens a weekly session with five questions drawn in the fixed
// difficulty order [easy, easy, medium, medium, hard]. Stale sessions from
// prior weeks are purged first. Fewer than five obtainable questions aborts
// without creating a session.
func (s *ChallengeService) StartWeekly(ctx context.Context, userID int64) ([]domain.Question, error) {
	s.purgeStaleWeekly()

	s.mu.Lock()
	_, active := s.weekly[userID]
	s.mu.Unlock()
	if active {
		return nil, domain.ErrChallengeActive
	}

	ok, err := s.progress.CanAttemptChallenge(ctx, userID, ChallengeWeekly)
	if err != nil {
		return nil, fmt.Errorf("check weekly eligibility: %w", err)
	}
	if !ok {
		return nil, domain.ErrChallengeCompleted
	}

	questions, err := s.questions.GetWeeklyQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("draw weekly questions: %w", err)
	}
	if len(questions) < weeklyQuestionCount {
		return nil, domain.ErrQuestionUnavailable
	}
	questions = questions[:weeklyQuestionCount]

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.weekly[userID]; active {
		return nil, domain.ErrChallengeActive
	}
	s.weekly[userID] = &weeklySession{questions: questions, startedAt: s.now()}
	return questions, nil
}

// weeklySessionFor looks up the user's weekly session, discarding it when it
// was opened in a prior week. The Monday reset must apply even between
// scheduler ticks: a run left open across the boundary is abandoned, never
// finalized into the new week.
func (s *ChallengeService) weeklySessionFor(userID int64) (*weeklySession, bool) {
	currentWeek := domain.DateOf(s.now()).WeekStart()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.weekly[userID]
	if !ok {
		return nil, false
	}
	if domain.DateOf(sess.startedAt).WeekStart().Before(currentWeek) {
		delete(s.weekly, userID)
		return nil, false
	}
	return sess, true
}

// CurrentWeeklyQuestion returns the question at the session cursor.
func (s *ChallengeService) CurrentWeeklyQuestion(userID int64) (*domain.Question, error) {
	sess, ok := s.weeklySessionFor(userID)
	if !ok {
		return nil, domain.ErrNoActiveChallenge
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.cursor >= len(sess.questions) {
		return nil, domain.ErrNoActiveChallenge
	}
	q := sess.questions[sess.cursor]
	return &q, nil
}

// SubmitWeeklyAnswer validates an extracted answer against the cursor
// question and processes it.
func (s *ChallengeService) SubmitWeeklyAnswer(ctx context.Context, userID int64, answer string, timeTaken float64) (domain.WeeklyResult, error) {
	question, err := s.CurrentWeeklyQuestion(userID)
	if err != nil {
		return domain.WeeklyResult{}, err
	}
	correct, err := ValidateAnswer(*question, answer)
	if err != nil {
		return domain.WeeklyResult{}, err
	}
	return s.ProcessWeeklyAnswer(ctx, userID, correct, timeTaken)
}

// ProcessWeeklyAnswer scores the cursor question with the per-question
// challenge multiplier, accumulates it in session state without touching the
// persisted profile, and advances the cursor. The fifth answer finalizes
// synchronously: accumulated points are tripled, awarded as one stats event,
// the completion date stamped, the badge tier decided, and the session
// destroyed. If the finalization write fails the session survives at cursor
// five and the next ProcessWeeklyAnswer call retries just the finalization. A
// duplicate fifth answer racing the first sees the finalized flag and gets
// ErrNoActiveChallenge instead of a second award.
func (s *ChallengeService) ProcessWeeklyAnswer(ctx context.Context, userID int64, correct bool, timeTaken float64) (domain.WeeklyResult, error) {
	sess, ok := s.weeklySessionFor(userID)
	if !ok {
		return domain.WeeklyResult{}, domain.ErrNoActiveChallenge
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.cursor >= weeklyQuestionCount {
		if sess.finalized {
			// A concurrent caller already awarded this run.
			return domain.WeeklyResult{}, domain.ErrNoActiveChallenge
		}
		// A previous finalization attempt failed after the last answer was
		// recorded; retry it with the already-accumulated state.
		return s.finalizeWeeklyLocked(ctx, userID, sess, domain.WeeklyResult{
			Correct:        sess.answers[weeklyQuestionCount-1].Correct,
			Points:         sess.answers[weeklyQuestionCount-1].Points,
			QuestionNumber: weeklyQuestionCount,
			TotalQuestions: weeklyQuestionCount,
			CorrectSoFar:   sess.correct,
		})
	}

	question := sess.questions[sess.cursor]

	profile, err := s.progress.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.WeeklyResult{}, fmt.Errorf("load profile: %w", err)
	}

	breakdown := TotalScore(ScoreInput{
		Difficulty:    question.Difficulty,
		Correct:       correct,
		TimeTaken:     timeTaken,
		CurrentStreak: profile.CurrentStreak,
		UserAccuracy:  profile.AccuracyPercentage(),
		IsChallenge:   true,
	})

	sess.answers = append(sess.answers, domain.AnswerRecord{
		QuestionID: question.ID,
		Correct:    correct,
		Points:     breakdown.TotalPoints,
		TimeTaken:  timeTaken,
	})
	sess.total += breakdown.TotalPoints
	if correct {
		sess.correct++
	}
	sess.cursor++

	result := domain.WeeklyResult{
		Correct:        correct,
		Points:         breakdown.TotalPoints,
		QuestionNumber: sess.cursor,
		TotalQuestions: weeklyQuestionCount,
		CorrectSoFar:   sess.correct,
		Explanation:    question.Explanation,
		Breakdown:      breakdown,
	}

	if sess.cursor >= weeklyQuestionCount {
		return s.finalizeWeeklyLocked(ctx, userID, sess, result)
	}
	return result, nil
}

// finalizeWeeklyLocked awards the tripled total as a single correct-answer
// event and destroys the session. Caller holds sess.mu. The session is only
// removed once both persistence steps succeed, so a failed finalization can
// be retried without double-awarding.
func (s *ChallengeService) finalizeWeeklyLocked(ctx context.Context, userID int64, sess *weeklySession, result domain.WeeklyResult) (domain.WeeklyResult, error) {
	finalPoints := sess.total * weeklyFinalMultiplier

	if _, err := s.progress.UpdateStats(ctx, userID, StatsUpdate{
		Points:     finalPoints,
		Correct:    true,
		Difficulty: domain.DifficultyMixed,
		Category:   "challenge",
	}); err != nil {
		return result, fmt.Errorf("award weekly points: %w", err)
	}
	if err := s.progress.UpdateChallengeCompletion(ctx, userID, ChallengeWeekly); err != nil {
		return result, fmt.Errorf("stamp weekly completion: %w", err)
	}

	// A racing submitter may already hold a pointer to this session; the flag
	// keeps it from finalizing again after the map entry is gone.
	sess.finalized = true

	s.mu.Lock()
	delete(s.weekly, userID)
	s.mu.Unlock()

	result.Completed = true
	result.FinalScore = fmt.Sprintf("%d/%d", sess.correct, weeklyQuestionCount)
	result.BasePoints = sess.total
	result.FinalPoints = finalPoints
	result.BadgeAwarded = domain.BadgeForScore(sess.correct)
	return result, nil
}

// CancelChallenge discards an open session without touching persisted stats
// or completion dates. Reports whether a session existed.
func (s *ChallengeService) CancelChallenge(userID int64, kind ChallengeKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case ChallengeDaily:
		if _, ok := s.daily[userID]; ok {
			delete(s.daily, userID)
			return true
		}
	case ChallengeWeekly:
		if _, ok := s.weekly[userID]; ok {
			delete(s.weekly, userID)
			return true
		}
	}
	return false
}

// Status reports availability, activity, and weekly progress for both
// tracks.
func (s *ChallengeService) Status(ctx context.Context, userID int64) (domain.ChallengeStatus, error) {
	s.purgeStaleWeekly()

	canDaily, err := s.progress.CanAttemptChallenge(ctx, userID, ChallengeDaily)
	if err != nil {
		return domain.ChallengeStatus{}, fmt.Errorf("check daily eligibility: %w", err)
	}
	canWeekly, err := s.progress.CanAttemptChallenge(ctx, userID, ChallengeWeekly)
	if err != nil {
		return domain.ChallengeStatus{}, fmt.Errorf("check weekly eligibility: %w", err)
	}

	s.mu.Lock()
	_, dailyActive := s.daily[userID]
	_, weeklyActive := s.weekly[userID]
	s.mu.Unlock()

	status := domain.ChallengeStatus{
		Daily: domain.TrackStatus{
			Available: canDaily && !dailyActive,
			Active:    dailyActive,
			Completed: !canDaily,
		},
		Weekly: domain.TrackStatus{
			Available: canWeekly && !weeklyActive,
			Active:    weeklyActive,
			Completed: !canWeekly,
		},
	}
	if weeklyActive {
		status.Weekly.Progress = s.WeeklyProgress(userID)
	}
	return status, nil
}

// WeeklyProgress returns detailed progress for an open weekly session, nil
// when none exists.
func (s *ChallengeService) WeeklyProgress(userID int64) *domain.WeeklyProgress {
	sess, ok := s.weeklySessionFor(userID)
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	answered := sess.cursor
	accuracy := 0.0
	if answered > 0 {
		accuracy = float64(sess.correct) / float64(answered) * 100
	}

	potential := ""
	switch {
	case sess.correct == answered && answered > 0:
		if answered == weeklyQuestionCount {
			potential = domain.BadgeWeeklyPerfect
		} else {
			potential = "on_track_for_perfect"
		}
	case sess.correct >= 4:
		potential = domain.BadgeWeeklyExcellent
	case sess.correct >= 3:
		potential = domain.BadgeWeeklyGood
	}

	answers := make([]domain.AnswerRecord, len(sess.answers))
	copy(answers, sess.answers)

	return &domain.WeeklyProgress{
		CurrentQuestion:    sess.cursor + 1,
		TotalQuestions:     weeklyQuestionCount,
		CorrectAnswers:     sess.correct,
		TotalPoints:        sess.total,
		QuestionsRemaining: weeklyQuestionCount - sess.cursor,
		Accuracy:           accuracy,
		ProjectedFinal:     sess.total * weeklyFinalMultiplier,
		PotentialBadge:     potential,
		Answers:            answers,
		StartedAt:          sess.startedAt,
	}
}

// purgeStaleWeekly drops weekly sessions opened before the current
// Monday-anchored week. Abandoned, not completed: no stats are written.
func (s *ChallengeService) purgeStaleWeekly() {
	currentWeek := domain.DateOf(s.now()).WeekStart()

	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.weekly {
		if domain.DateOf(sess.startedAt).WeekStart().Before(currentWeek) {
			delete(s.weekly, userID)
		}
	}
}

// Shutdown stops the weekly scheduler (safe to call when never started) and
// drops all ephemeral sessions.
func (s *ChallengeService) Shutdown() {
	s.stopScheduler()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily = make(map[int64]*dailySession)
	s.weekly = make(map[int64]*weeklySession)
}
