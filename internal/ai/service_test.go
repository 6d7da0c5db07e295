package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// stubDispatcher returns a canned completion (or error) and records the
// prompts it saw.
type stubDispatcher struct {
	text    string
	err     error
	prompts []PromptConfig
}

func (d *stubDispatcher) Dispatch(_ context.Context, _ Scenario, prompt PromptConfig) (string, error) {
	d.prompts = append(d.prompts, prompt)
	return d.text, d.err
}

func (d *stubDispatcher) Resolve(Scenario) (string, string) {
	return "deepseek", "deepseek-chat"
}

type channelRecorder struct {
	records chan AnalysisRecord
}

func (r *channelRecorder) SaveAnalysisRecord(rec AnalysisRecord) error {
	r.records <- rec
	return nil
}

func TestRecognizeContentNormalizesAIResult(t *testing.T) {
	d := &stubDispatcher{text: `{"type":"goal","summary":"","confidence":1.4,"reasoning":""}`}
	svc := NewService(d, nil)

	result := svc.RecognizeContent(context.Background(), "成为更好的工程师")
	if result.Type != ContentGoal {
		t.Fatalf("expected goal, got %s", result.Type)
	}
	if result.Summary != "成为更好的工程师" {
		t.Fatalf("expected summary to default to input, got %q", result.Summary)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("expected confidence clamped to 1.0, got %v", result.Confidence)
	}
	if result.Reasoning != "AI分析完成" {
		t.Fatalf("expected default reasoning, got %q", result.Reasoning)
	}
}

func TestRecognizeContentStripsCodeFences(t *testing.T) {
	d := &stubDispatcher{text: "```json\n{\"type\":\"principle\",\"summary\":\"s\",\"confidence\":0.9,\"reasoning\":\"r\"}\n```"}
	svc := NewService(d, nil)

	result := svc.RecognizeContent(context.Background(), "x")
	if result.Type != ContentPrinciple || result.Confidence != 0.9 {
		t.Fatalf("fenced JSON not parsed: %+v", result)
	}
}

func TestRecognizeContentZeroConfidenceDefaults(t *testing.T) {
	d := &stubDispatcher{text: `{"type":"task","summary":"s","confidence":0,"reasoning":"r"}`}
	svc := NewService(d, nil)

	if got := svc.RecognizeContent(context.Background(), "x").Confidence; got != 0.5 {
		t.Fatalf("expected zero confidence to default to 0.5, got %v", got)
	}
}

func TestRecognizeContentFallsBackOnDispatchError(t *testing.T) {
	d := &stubDispatcher{err: errors.New("connection refused")}
	svc := NewService(d, nil)

	tests := []struct {
		content string
		want    ContentType
	}{
		{"买牛奶", ContentTask},
		{"我的目标是跑完马拉松", ContentGoal},
		{"诚信是我的原则", ContentPrinciple},
		// Goal keywords win over principle keywords.
		{"我想学习新技能，这是我的人生信念", ContentGoal},
	}
	for _, tt := range tests {
		result := svc.RecognizeContent(context.Background(), tt.content)
		if result.Type != tt.want {
			t.Fatalf("%q: expected %s, got %s", tt.content, tt.want, result.Type)
		}
		if result.Confidence != 0.3 {
			t.Fatalf("%q: expected fallback confidence 0.3, got %v", tt.content, result.Confidence)
		}
		if result.Reasoning != "关键词匹配（AI服务不可用）" {
			t.Fatalf("%q: unexpected reasoning %q", tt.content, result.Reasoning)
		}
		if !strings.Contains(result.Summary, tt.content) {
			t.Fatalf("%q: summary should embed the content, got %q", tt.content, result.Summary)
		}
	}
}

func TestRecognizeContentFallsBackOnGarbage(t *testing.T) {
	d := &stubDispatcher{text: "sorry, I cannot do that"}
	svc := NewService(d, nil)

	result := svc.RecognizeContent(context.Background(), "买牛奶")
	if result.Type != ContentTask || result.Confidence != 0.3 {
		t.Fatalf("expected keyword fallback, got %+v", result)
	}
}

func TestRecognizeContentIsDeterministicOffline(t *testing.T) {
	d := &stubDispatcher{err: errors.New("down")}
	svc := NewService(d, nil)

	first := svc.RecognizeContent(context.Background(), "我希望掌握围棋")
	second := svc.RecognizeContent(context.Background(), "我希望掌握围棋")
	if first != second {
		t.Fatalf("fallback not deterministic: %+v vs %+v", first, second)
	}
}

func TestRecognizeContentRecordsAudit(t *testing.T) {
	recorder := &channelRecorder{records: make(chan AnalysisRecord, 1)}
	d := &stubDispatcher{err: errors.New("down")}
	svc := NewService(d, recorder)

	svc.RecognizeContent(context.Background(), "买牛奶")

	select {
	case rec := <-recorder.records:
		if !rec.Fallback {
			t.Fatal("expected fallback flag on audit record")
		}
		if rec.Provider != "deepseek" || rec.Model != "deepseek-chat" {
			t.Fatalf("unexpected provider/model: %s/%s", rec.Provider, rec.Model)
		}
		if rec.Content != "买牛奶" {
			t.Fatalf("unexpected content: %q", rec.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audit record was never written")
	}
}

func TestAnalyzeTaskNormalizesPartialResult(t *testing.T) {
	d := &stubDispatcher{text: `{
		"priority": "urgent",
		"goalAlignment": {"relatedGoals": [
			{"goalTitle": "健康生活", "alignmentScore": 1.7, "reasoning": "ok"},
			{"goalTitle": "", "alignmentScore": 0.4}
		]}
	}`}
	svc := NewService(d, nil)

	analysis := svc.AnalyzeTask(context.Background(), "每天跑步", nil)
	if analysis.Priority != "medium" {
		t.Fatalf("unknown priority should default to medium, got %q", analysis.Priority)
	}
	if analysis.EstimatedTime != "1小时" || analysis.Category != "其他" {
		t.Fatalf("missing fields not defaulted: %+v", analysis)
	}
	if analysis.Suggestions == nil {
		t.Fatal("suggestions must never be nil")
	}
	if len(analysis.GoalAlignment.RelatedGoals) != 1 {
		t.Fatalf("expected untitled related goal dropped, got %+v", analysis.GoalAlignment.RelatedGoals)
	}
	if got := analysis.GoalAlignment.RelatedGoals[0].AlignmentScore; got != 1.0 {
		t.Fatalf("expected score clamped to 1.0, got %v", got)
	}
}

func TestAnalyzeTaskDefaultsOnError(t *testing.T) {
	d := &stubDispatcher{err: errors.New("down")}
	svc := NewService(d, nil)

	analysis := svc.AnalyzeTask(context.Background(), "每天跑步", nil)
	want := DefaultTaskAnalysis()
	if analysis.Priority != want.Priority || analysis.EstimatedTime != want.EstimatedTime || analysis.Category != want.Category {
		t.Fatalf("expected default analysis, got %+v", analysis)
	}
	if analysis.TimeAnalysis.HasDeadline || analysis.RepetitionAnalysis.IsRecurring {
		t.Fatalf("defaults must not claim deadline or recurrence: %+v", analysis)
	}
	if len(analysis.GoalAlignment.RelatedGoals) != 0 {
		t.Fatalf("defaults must not claim aligned goals: %+v", analysis)
	}
}

func TestAnalyzeTaskEmbedsGoalContext(t *testing.T) {
	d := &stubDispatcher{text: `{}`}
	svc := NewService(d, nil)

	goals := []Goal{{
		Title:       "健康生活",
		Description: "保持规律锻炼",
		Category:    "健康",
		Keywords:    []string{"跑步", "锻炼"},
	}}
	svc.AnalyzeTask(context.Background(), "每天跑步", goals)

	if len(d.prompts) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(d.prompts))
	}
	if !strings.Contains(d.prompts[0].User, "健康生活 | 保持规律锻炼 | 健康 | 跑步,锻炼") {
		t.Fatalf("goal context not serialized into prompt:\n%s", d.prompts[0].User)
	}
}

func TestScoreAlignmentNormalizes(t *testing.T) {
	d := &stubDispatcher{text: `{"alignmentScore":-0.2,"alignedGoals":["a"],"suggestions":null}`}
	svc := NewService(d, nil)

	result := svc.ScoreAlignment(context.Background(), "每天跑步", []string{"健康生活"})
	if result.AlignmentScore != 0 {
		t.Fatalf("expected negative score clamped to 0, got %v", result.AlignmentScore)
	}
	if result.Suggestions == nil || result.AlignedGoals == nil {
		t.Fatal("slices must never be nil")
	}
}

func TestScoreAlignmentDefaultsOnError(t *testing.T) {
	d := &stubDispatcher{err: errors.New("down")}
	svc := NewService(d, nil)

	result := svc.ScoreAlignment(context.Background(), "x", nil)
	if result.AlignmentScore != 0.5 {
		t.Fatalf("expected neutral 0.5 score, got %v", result.AlignmentScore)
	}
	if len(result.AlignedGoals) != 0 || len(result.Suggestions) != 0 {
		t.Fatalf("expected empty slices, got %+v", result)
	}
}
