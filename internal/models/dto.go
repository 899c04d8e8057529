package models

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type StartInterviewResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

type AnswerResponse struct {
	ID           string `json:"id"`
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"next_question,omitempty"`
	Completed    bool   `json:"completed"`
}

type InterviewView struct {
	ID        string   `json:"id"`
	JobTitle  string   `json:"job_title"`
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
	Feedback  []string `json:"feedback"`
	Current   int      `json:"current_question"`
	Completed bool     `json:"completed"`
	Turns     int      `json:"turns"`
}

type StartQuizRequest struct {
	Topic  string   `json:"topic"`
	Skills []string `json:"skills,omitempty"`
	Count  int      `json:"count,omitempty"`
}

// QuizQuestionView is a question as shown to the taker: no answer key.
type QuizQuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type StartQuizResponse struct {
	ID        string             `json:"id"`
	Topic     string             `json:"topic"`
	Questions []QuizQuestionView `json:"questions"`
}

type QuizAnswerRequest struct {
	Index    int    `json:"index"`
	Selected string `json:"selected"`
}

type QuizAnswerResponse struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

type QuestionVerdict struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Selected string `json:"selected,omitempty"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
}

type QuizResultResponse struct {
	ID           string            `json:"id"`
	CorrectCount int               `json:"correct_count"`
	Total        int               `json:"total"`
	Score        float64           `json:"score"`
	Verdicts     []QuestionVerdict `json:"verdicts"`
}

type ExplanationsResponse struct {
	ID           string `json:"id"`
	Explanations string `json:"explanations"`
}
