package ai

import (
	"context"
	"encoding/json"
	"log"
	"strings"
)

// Dispatcher abstracts the provider gateway so the service can be
// tested without network access.
type Dispatcher interface {
	Dispatch(ctx context.Context, scenario Scenario, prompt PromptConfig) (string, error)
	Resolve(scenario Scenario) (provider, model string)
}

// AuditRecorder persists classification audit entries. Nil disables
// auditing.
type AuditRecorder interface {
	SaveAnalysisRecord(rec AnalysisRecord) error
}

// Service is the analysis pipeline: classify free text, enrich tasks,
// score goal alignment. Every method degrades to a deterministic
// fallback instead of returning an error; analysis must never block a
// capture from being saved.
type Service struct {
	dispatcher Dispatcher
	audit      AuditRecorder
}

func NewService(dispatcher Dispatcher, audit AuditRecorder) *Service {
	return &Service{dispatcher: dispatcher, audit: audit}
}

// RecognizeContent classifies free text into task, goal or principle.
func (s *Service) RecognizeContent(ctx context.Context, content string) RecognitionResult {
	provider, model := s.dispatcher.Resolve(ScenarioContentRecognition)

	text, err := s.dispatcher.Dispatch(ctx, ScenarioContentRecognition, ContentRecognitionPrompt(content))
	if err != nil {
		log.Printf("content recognition dispatch failed, using keyword fallback: %v", err)
		result := fallbackRecognition(content)
		s.recordAnalysis(content, result, provider, model, true)
		return result
	}

	var partial partialRecognition
	if err := json.Unmarshal([]byte(cleanJSONText(text)), &partial); err != nil {
		log.Printf("content recognition returned invalid JSON, using keyword fallback: %v", err)
		result := fallbackRecognition(content)
		s.recordAnalysis(content, result, provider, model, true)
		return result
	}

	result := normalizeRecognition(content, partial)
	s.recordAnalysis(content, result, provider, model, false)
	return result
}

// AnalyzeTask enriches a task with priority, time estimates and
// goal-alignment hints against the user's active goals.
func (s *Service) AnalyzeTask(ctx context.Context, content string, goals []Goal) TaskAnalysis {
	text, err := s.dispatcher.Dispatch(ctx, ScenarioTaskAnalysis, TaskAnalysisPrompt(content, goals))
	if err != nil {
		log.Printf("task analysis dispatch failed, using defaults: %v", err)
		return DefaultTaskAnalysis()
	}

	var partial partialTaskAnalysis
	if err := json.Unmarshal([]byte(cleanJSONText(text)), &partial); err != nil {
		log.Printf("task analysis returned invalid JSON, using defaults: %v", err)
		return DefaultTaskAnalysis()
	}
	return normalizeTaskAnalysis(partial)
}

// ScoreAlignment rates how well a task serves the given goals.
func (s *Service) ScoreAlignment(ctx context.Context, task string, goalTitles []string) GoalAlignmentResult {
	text, err := s.dispatcher.Dispatch(ctx, ScenarioGoalAlignment, GoalAlignmentPrompt(task, goalTitles))
	if err != nil {
		log.Printf("goal alignment dispatch failed, using neutral score: %v", err)
		return DefaultAlignment()
	}

	var partial partialAlignment
	if err := json.Unmarshal([]byte(cleanJSONText(text)), &partial); err != nil {
		log.Printf("goal alignment returned invalid JSON, using neutral score: %v", err)
		return DefaultAlignment()
	}
	return normalizeAlignment(partial)
}

// recordAnalysis writes the audit entry off the request path. A failed
// write is logged and dropped.
func (s *Service) recordAnalysis(content string, result RecognitionResult, provider, model string, fallback bool) {
	if s.audit == nil {
		return
	}
	rec := AnalysisRecord{
		Content:    content,
		Type:       result.Type,
		Summary:    result.Summary,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Provider:   provider,
		Model:      model,
		Fallback:   fallback,
	}
	go func() {
		if err := s.audit.SaveAnalysisRecord(rec); err != nil {
			log.Printf("analysis record save failed: %v", err)
		}
	}()
}

// cleanJSONText strips markdown code fences some models wrap around
// JSON answers despite being asked not to.
func cleanJSONText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text
}
