package services

import (
	"fmt"
	"strings"

	"interview-coach/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildQuestionPrompt creates the next-question prompt for the mock
// interview. An empty transcript means this is the opening question.
func (pb *PromptBuilder) BuildQuestionPrompt(jobTitle, resume, jobDesc, transcript string) string {
	if strings.TrimSpace(jobDesc) == "" {
		jobDesc = "Not provided"
	}

	return fmt.Sprintf(`You are an AI interviewer conducting a behavioral mock interview for the position of %s.
The candidate's resume is as follows:
%s

Job description:
%s

Here are the candidate's previous answers:
%s

Now, ask the next behavioral interview question (1 question only). Start with an introduction question if this is the first.`,
		jobTitle, resume, jobDesc, transcript)
}

// BuildFeedbackPrompt creates the coaching prompt for one answered
// question.
func (pb *PromptBuilder) BuildFeedbackPrompt(question, answer string) string {
	return fmt.Sprintf(`You are an expert interview coach. Given the following interview question and candidate's answer, provide constructive feedback focusing on clarity, relevance, depth, and communication.

Question: %s
Answer: %s

Feedback:`, question, answer)
}

// BuildQuizPrompt asks for a fixed batch of multiple-choice questions
// as a bare JSON array.
func (pb *PromptBuilder) BuildQuizPrompt(topic string, skills []string, count int) string {
	skillLine := "Not specified"
	if len(skills) > 0 {
		skillLine = strings.Join(skills, ", ")
	}

	return fmt.Sprintf(`You are an expert technical interviewer preparing a multiple-choice quiz.

Topic: %s
Skills to emphasize: %s

Generate exactly %d multiple-choice questions.

Return your result as a JSON array in this format:

[
  {
    "question": string,
    "options": ["A. ...", "B. ...", "C. ...", "D. ..."],
    "answer": "A"
  }
]

Each question must have exactly four options prefixed "A." through "D.", and "answer" must be the single letter of the correct option.
Return only valid JSON. Do not include explanations, markdown, or text before or after the JSON.`,
		topic, skillLine, count)
}

// BuildExplanationPrompt batches every missed question into one prompt.
func (pb *PromptBuilder) BuildExplanationPrompt(topic string, missed []models.QuestionVerdict) string {
	var sb strings.Builder
	for i, v := range missed {
		selected := v.Selected
		if selected == "" {
			selected = "(no answer)"
		}
		fmt.Fprintf(&sb, "%d. Question: %s\n   Candidate chose: %s\n   Correct answer: %s\n\n",
			i+1, v.Question, selected, v.Answer)
	}

	return fmt.Sprintf(`You are an expert tutor on the topic of %s. For each of the following quiz questions the candidate answered incorrectly, explain in 2-3 sentences why the correct answer is right and where the chosen answer goes wrong.

%s
Number your explanations to match the questions.`, topic, sb.String())
}

// BuildTranscript renders prior turns as numbered Q/A pairs for the
// next-question prompt.
func BuildTranscript(questions, answers []string) string {
	n := len(answers)
	if len(questions) < n {
		n = len(questions)
	}

	var parts []string
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, questions[i], i+1, answers[i]))
	}
	return strings.Join(parts, "\n\n")
}
