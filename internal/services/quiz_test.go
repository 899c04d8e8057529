package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"interview-coach/internal/models"
	"interview-coach/internal/repositories"
)

const sampleBatch = `[
  {"question": "What does a goroutine share with its creator?", "options": ["A. Address space", "B. Stack", "C. Program counter", "D. Register file"], "answer": "A"},
  {"question": "Which type is safe for concurrent use without locking?", "options": ["A. map", "B. slice", "C. sync.Map", "D. bytes.Buffer"], "answer": "C"}
]`

func TestCleanJSONFenceEquivalence(t *testing.T) {
	fenced := "```json\n" + sampleBatch + "\n```"
	plainFence := "```\n" + sampleBatch + "\n```"

	want, err := ParseQuestions(sampleBatch)
	if err != nil {
		t.Fatalf("unfenced parse failed: %v", err)
	}

	for name, input := range map[string]string{
		"json tagged fence": fenced,
		"untagged fence":    plainFence,
		"padded fence":      "  \n" + fenced + "\n  ",
	} {
		got, err := ParseQuestions(input)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: parse result differs from unfenced equivalent", name)
		}
	}
}

func TestParseQuestionsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "here are your questions!"},
		{"empty array", "[]"},
		{"three options", `[{"question": "q", "options": ["A. a", "B. b", "C. c"], "answer": "A"}]`},
		{"five options", `[{"question": "q", "options": ["A. a", "B. b", "C. c", "D. d", "E. e"], "answer": "A"}]`},
		{"answer not a letter", `[{"question": "q", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "AB"}]`},
		{"answer out of range", `[{"question": "q", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "E"}]`},
		{"option without prefix", `[{"question": "q", "options": ["A. a", "B. b", "C. c", "plain"], "answer": "A"}]`},
		{"option prefix outside A-D", `[{"question": "q", "options": ["A. a", "B. b", "C. c", "E. e"], "answer": "A"}]`},
		{"duplicate prefixes", `[{"question": "q", "options": ["A. a", "A. b", "C. c", "D. d"], "answer": "A"}]`},
		{"empty question text", `[{"question": " ", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "A"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuestions(tt.input); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestOptionLetter(t *testing.T) {
	tests := []struct {
		option string
		want   string
	}{
		{"A. Address space", "A"},
		{"  b. lowercase and padded  ", "B"},
		{"D.", "D"},
		{"no prefix here", ""},
		{". leading dot", ""},
		{"AB. two letters", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := OptionLetter(tt.option); got != tt.want {
			t.Errorf("OptionLetter(%q) = %q, want %q", tt.option, got, tt.want)
		}
	}
}

func TestIsCorrect(t *testing.T) {
	q := models.QuizQuestion{
		Question: "q",
		Options:  []string{"A. yes", "B. no", "C. maybe", "D. later"},
		Answer:   "B",
	}

	if !IsCorrect(q, "B. no") {
		t.Error("matching prefix should be correct")
	}
	if !IsCorrect(q, "b. no") {
		t.Error("letter comparison should ignore case")
	}
	if IsCorrect(q, "A. yes") {
		t.Error("non-matching prefix should be incorrect")
	}
	if IsCorrect(q, "no") {
		t.Error("option without prefix should be incorrect")
	}
}

func newQuizFixture(t *testing.T, gemini *fakeGemini) (QuizService, *models.QuizSession) {
	t.Helper()

	repo := repositories.NewSessionRepository()
	svc := NewQuizService(repo, gemini, 5, 20)

	session, err := svc.Start(context.Background(), "Go concurrency", []string{"channels"}, 2)
	if err != nil {
		t.Fatalf("failed to start quiz: %v", err)
	}
	return svc, session
}

func TestQuizScoring(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	svc, session := newQuizFixture(t, gemini)

	correct, err := svc.Answer(session.ID, 0, "A. Address space")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !correct {
		t.Error("first answer should be correct")
	}

	correct, err = svc.Answer(session.ID, 1, "A. map")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if correct {
		t.Error("second answer should be incorrect")
	}

	result, err := svc.Submit(session.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if result.CorrectCount != 1 || result.Total != 2 {
		t.Errorf("got %d/%d, want 1/2", result.CorrectCount, result.Total)
	}
	if result.Score != 0.5 {
		t.Errorf("score = %v, want 0.5", result.Score)
	}
	if len(result.Verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(result.Verdicts))
	}
	if !result.Verdicts[0].Correct || result.Verdicts[1].Correct {
		t.Error("verdicts do not match answers")
	}
}

func TestQuizUnansweredCountsAsWrong(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	svc, session := newQuizFixture(t, gemini)

	result, err := svc.Submit(session.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if result.CorrectCount != 0 || result.Score != 0 {
		t.Errorf("unanswered quiz scored %d (%v), want 0", result.CorrectCount, result.Score)
	}
}

func TestQuizAnswerValidation(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	svc, session := newQuizFixture(t, gemini)

	if _, err := svc.Answer(session.ID, 5, "A. x"); err == nil {
		t.Error("out-of-range index should fail")
	}
	if _, err := svc.Answer(session.ID, 0, "   "); err == nil {
		t.Error("blank selection should fail")
	}

	if _, err := svc.Submit(session.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Answer(session.ID, 0, "A. Address space"); err == nil {
		t.Error("answering after submit should fail")
	}
}

func TestQuizStartMalformedResponse(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: "Sure! Here are some questions."}}}
	repo := repositories.NewSessionRepository()
	svc := NewQuizService(repo, gemini, 5, 20)

	_, err := svc.Start(context.Background(), "Go", nil, 2)
	if err == nil {
		t.Fatal("expected error for malformed response")
	}

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %T", err)
	}
	if malformed.Raw != "Sure! Here are some questions." {
		t.Errorf("raw output not preserved: %q", malformed.Raw)
	}
}

func TestQuizExplanationsOnlyCoverMissed(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{
		{text: sampleBatch},
		{text: "1. The correct answer is C because sync.Map handles its own locking."},
	}}
	svc, session := newQuizFixture(t, gemini)

	if _, err := svc.Answer(session.ID, 0, "A. Address space"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if _, err := svc.Answer(session.ID, 1, "A. map"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	explanations, err := svc.Explanations(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("explanations failed: %v", err)
	}
	if explanations == "" {
		t.Fatal("expected explanations for the missed question")
	}

	prompt := gemini.prompts[len(gemini.prompts)-1]
	if !strings.Contains(prompt, "concurrent use") {
		t.Error("prompt should contain the missed question")
	}
	if strings.Contains(prompt, "goroutine share") {
		t.Error("prompt should not contain correctly answered questions")
	}
}

func TestQuizExplanationsNoMissedNoCall(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	svc, session := newQuizFixture(t, gemini)

	if _, err := svc.Answer(session.ID, 0, "A. Address space"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if _, err := svc.Answer(session.ID, 1, "C. sync.Map"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	calls := gemini.callCount()
	explanations, err := svc.Explanations(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("explanations failed: %v", err)
	}
	if explanations != "" {
		t.Errorf("expected no explanations, got %q", explanations)
	}
	if gemini.callCount() != calls {
		t.Error("no model call should be made when nothing was missed")
	}
}

// Concurrent answers on one session must neither race nor corrupt the
// selections map (run with -race).
func TestConcurrentQuizAnswers(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	svc, session := newQuizFixture(t, gemini)

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if _, err := svc.Answer(session.ID, w%2, "A. Address space"); err != nil {
					t.Errorf("answer failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	got, err := svc.Get(session.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Selections) != 2 {
		t.Errorf("got %d selections, want 2", len(got.Selections))
	}
}

func TestQuizCountBounds(t *testing.T) {
	gemini := &fakeGemini{replies: []reply{{text: sampleBatch}}}
	repo := repositories.NewSessionRepository()
	svc := NewQuizService(repo, gemini, 5, 10)

	if _, err := svc.Start(context.Background(), "Go", nil, 500); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	prompt := gemini.prompts[0]
	if !strings.Contains(prompt, "exactly 10 ") {
		t.Errorf("count should be capped at 10, prompt: %q", prompt)
	}

	gemini.replies = []reply{{text: sampleBatch}}
	if _, err := svc.Start(context.Background(), "Go", nil, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !strings.Contains(gemini.prompts[1], "exactly 5 ") {
		t.Error("zero count should fall back to the default")
	}
}
