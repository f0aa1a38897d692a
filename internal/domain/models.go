package domain

import "time"

// Difficulty of a trivia question. Unknown values are treated as medium
// wherever a point value has to be derived.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is used for the single stats event recorded when a
	// weekly challenge is finalized.
	DifficultyMixed Difficulty = "mixed"
)

// QuestionType determines how an answer is validated.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlank      QuestionType = "fill_blank"
)

// PointValues maps difficulty to base points for a correct answer.
var PointValues = map[Difficulty]int{
	DifficultyEasy:   10,
	DifficultyMedium: 20,
	DifficultyHard:   30,
}

// BasePointValue returns the base points for a difficulty, defaulting to the
// medium value for unrecognized difficulties.
func BasePointValue(d Difficulty) int {
	if v, ok := PointValues[d]; ok {
		return v
	}
	return PointValues[DifficultyMedium]
}

// Question is an immutable value once issued. Challenge multipliers are never
// written back into a Question; doubling/tripling is carried in the
// ScoreBreakdown or session state instead.
type Question struct {
	ID               int64        `json:"id"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	Difficulty       Difficulty   `json:"difficulty"`
	Category         string       `json:"category"`
	CorrectAnswer    string       `json:"correctAnswer"`
	Options          []string     `json:"options,omitempty"`          // multiple choice only
	AnswerVariations []string     `json:"answerVariations,omitempty"` // fill-blank only
	Explanation      string       `json:"explanation,omitempty"`
}

// PointValue is the base point value derived from difficulty.
func (q Question) PointValue() int {
	return BasePointValue(q.Difficulty)
}

// UserProfile holds one user's cumulative trivia stats. It is owned by the
// ProgressStore and mutated only through its update operations.
type UserProfile struct {
	UserID              int64      `json:"userId"`
	TotalPoints         int        `json:"totalPoints"`
	QuestionsAnswered   int        `json:"questionsAnswered"`
	QuestionsCorrect    int        `json:"questionsCorrect"`
	CurrentStreak       int        `json:"currentStreak"`
	BestStreak          int        `json:"bestStreak"`
	LastPlayed          time.Time  `json:"lastPlayed,omitempty"`
	DailyCompleted      *CivilDate `json:"dailyChallengeCompleted,omitempty"`
	WeeklyCompleted     *CivilDate `json:"weeklyChallengeCompleted,omitempty"`
	PreferredDifficulty Difficulty `json:"preferredDifficulty,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// AccuracyPercentage is questions_correct/questions_answered*100, 0 when
// nothing has been answered.
func (p UserProfile) AccuracyPercentage() float64 {
	if p.QuestionsAnswered == 0 {
		return 0
	}
	return float64(p.QuestionsCorrect) / float64(p.QuestionsAnswered) * 100
}

// CivilDate is a calendar date without a time component, used for the
// daily/weekly challenge completion stamps.
type CivilDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, err
	}
	return DateOf(t), nil
}

func (d CivilDate) String() string {
	return d.Time().Format("2006-01-02")
}

// Time returns midnight UTC of the date.
func (d CivilDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing d.
func (d CivilDate) WeekStart() CivilDate {
	t := d.Time()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return DateOf(t.AddDate(0, 0, -offset))
}

// Before reports whether d is an earlier calendar date than other.
func (d CivilDate) Before(other CivilDate) bool {
	return d.Time().Before(other.Time())
}

// ScoreBreakdown is the ephemeral result of one scoring call. Invariant:
// TotalPoints = trunc(BasePoints*TimeBonus*DifficultyBonus*ChallengeMultiplier) + StreakBonus,
// and TotalPoints == 0 whenever the answer was incorrect.
type ScoreBreakdown struct {
	BasePoints          int      `json:"basePoints"`
	TimeBonusMultiplier float64  `json:"timeBonusMultiplier"`
	StreakBonus         int      `json:"streakBonus"`
	DifficultyBonus     float64  `json:"difficultyBonusMultiplier"`
	ChallengeMultiplier float64  `json:"challengeMultiplier"`
	TotalPoints         int      `json:"totalPoints"`
	Breakdown           []string `json:"breakdown"`
}

// AnswerRecord is one entry of a weekly session's answer log.
type AnswerRecord struct {
	QuestionID int64   `json:"questionId"`
	Correct    bool    `json:"correct"`
	Points     int     `json:"points"`
	TimeTaken  float64 `json:"timeTaken"`
}

// DailyResult is returned when a daily challenge answer is processed.
type DailyResult struct {
	Correct         bool           `json:"correct"`
	BasePoints      int            `json:"basePoints"`
	ChallengePoints int            `json:"challengePoints"`
	Explanation     string         `json:"explanation,omitempty"`
	Breakdown       ScoreBreakdown `json:"scoreBreakdown"`
}

// WeeklyResult is returned for each processed weekly challenge answer. The
// completion fields are populated only once the fifth answer finalizes the
// run.
type WeeklyResult struct {
	Correct        bool           `json:"correct"`
	Points         int            `json:"points"`
	QuestionNumber int            `json:"questionNumber"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectSoFar   int            `json:"correctSoFar"`
	Explanation    string         `json:"explanation,omitempty"`
	Breakdown      ScoreBreakdown `json:"scoreBreakdown"`

	Completed    bool   `json:"isCompleted"`
	FinalScore   string `json:"finalScore,omitempty"` // "X/5"
	BasePoints   int    `json:"basePoints,omitempty"` // accumulated pre-triple total
	FinalPoints  int    `json:"finalPoints,omitempty"`
	BadgeAwarded string `json:"badgeAwarded,omitempty"`
}

// WeeklyProgress summarizes an in-flight weekly challenge.
type WeeklyProgress struct {
	CurrentQuestion    int            `json:"currentQuestion"` // 1-based, next to answer
	TotalQuestions     int            `json:"totalQuestions"`
	CorrectAnswers     int            `json:"correctAnswers"`
	TotalPoints        int            `json:"totalPoints"`
	QuestionsRemaining int            `json:"questionsRemaining"`
	Accuracy           float64        `json:"accuracy"`
	ProjectedFinal     int            `json:"projectedFinalPoints"`
	PotentialBadge     string         `json:"potentialBadge,omitempty"`
	Answers            []AnswerRecord `json:"answers"`
	StartedAt          time.Time      `json:"startedAt"`
}

// ChallengeStatus reports availability for both challenge tracks.
type ChallengeStatus struct {
	Daily  TrackStatus `json:"daily"`
	Weekly TrackStatus `json:"weekly"`
}

// TrackStatus describes one challenge track for a user.
type TrackStatus struct {
	Available bool            `json:"available"`
	Active    bool            `json:"active"`
	Completed bool            `json:"completed"` // today (daily) / this week (weekly)
	Progress  *WeeklyProgress `json:"progress,omitempty"`
}

// Announcement is the weekly-reset payload produced for the notification
// sink. Delivery is external.
type Announcement struct {
	Message   string    `json:"message"`
	WeekStart CivilDate `json:"weekStart"`
	Timestamp time.Time `json:"timestamp"`
}
