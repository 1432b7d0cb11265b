package quiz

// Question is one multiple-choice item. Questions live embedded in their
// test as a JSON document rather than as child rows.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Test is the single quiz attached to a course.
type Test struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"courseId"`
	CreatorID string     `json:"creator"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}

// QuestionInput is an instructor-submitted question before it gets an id.
type QuestionInput struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// SubmittedAnswer is a student's answer to one question.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// AnswerRecord is a graded answer persisted with the result.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Result is one graded attempt. Every submission inserts a new row; history
// is never overwritten.
type Result struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	CourseID    string         `json:"courseId"`
	TestID      string         `json:"testId"`
	Score       float64        `json:"score"`
	Passed      bool           `json:"passed"`
	Answers     []AnswerRecord `json:"answers"`
	CompletedAt int64          `json:"completedAt"` // unix millis
}

// PassThreshold is the minimum score for a passing attempt.
const PassThreshold = 70.0
